package config

import "testing"

func TestDefaultValues(t *testing.T) {
	c := Default()
	if c.Port() != 6379 {
		t.Fatalf("Port() = %d, want 6379", c.Port())
	}
	if c.DBNum() != 1 {
		t.Fatalf("DBNum() = %d, want 1", c.DBNum())
	}
	if c.AppendFsync() != FsyncEverysec {
		t.Fatalf("AppendFsync() = %q, want everysec", c.AppendFsync())
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	c := Default()
	if err := c.Set("appendonly", "yes"); err != nil {
		t.Fatalf("Set(appendonly) error: %v", err)
	}
	got, err := c.Get("appendonly")
	if err != nil || got != "yes" {
		t.Fatalf("Get(appendonly) = %q, %v", got, err)
	}
	if !c.AppendOnly() {
		t.Fatal("AppendOnly() should be true after Set(appendonly, yes)")
	}
}

func TestGetUnknownKey(t *testing.T) {
	c := Default()
	if _, err := c.Get("bogus"); err != ErrNoSuchConfig {
		t.Fatalf("Get(bogus) error = %v, want ErrNoSuchConfig", err)
	}
	if err := c.Set("bogus", "x"); err != ErrNoSuchConfig {
		t.Fatalf("Set(bogus) error = %v, want ErrNoSuchConfig", err)
	}
}

func TestSetSaveList(t *testing.T) {
	c := Default()
	if err := c.Set("save", "1 1 10 5"); err != nil {
		t.Fatalf("Set(save) error: %v", err)
	}
	params := c.SaveParams()
	want := []SaveParam{{Seconds: 1, Changes: 1}, {Seconds: 10, Changes: 5}}
	if len(params) != len(want) {
		t.Fatalf("SaveParams() = %+v, want %+v", params, want)
	}
	for i := range want {
		if params[i] != want[i] {
			t.Fatalf("SaveParams()[%d] = %+v, want %+v", i, params[i], want[i])
		}
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	c, err := Load("/nonexistent/path/to/redis.conf")
	if err != nil {
		t.Fatalf("Load on missing file returned error: %v", err)
	}
	if c.Port() != 6379 {
		t.Fatalf("Port() = %d, want default 6379", c.Port())
	}
}
