package resp

import (
	"bytes"
	"reflect"
	"testing"
)

func mustParse(t *testing.T, data []byte) *Frame {
	t.Helper()
	p := NewParser()
	p.Feed(data)
	f, err := p.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f == nil {
		t.Fatalf("expected a frame, got nil (need more data)")
	}
	return f
}

func TestParseSimpleTypes(t *testing.T) {
	cases := []struct {
		in   string
		want Frame
	}{
		{"+OK\r\n", SimpleFrame("OK")},
		{"-ERR bad\r\n", ErrFrame("ERR bad")},
		{":42\r\n", IntFrame(42)},
		{":-7\r\n", IntFrame(-7)},
		{"$5\r\nhello\r\n", BulkString("hello")},
		{"$0\r\n\r\n", BulkString("")},
		{"$-1\r\n", NullFrame()},
		{"*-1\r\n", NullFrame()},
	}
	for _, c := range cases {
		got := mustParse(t, []byte(c.in))
		if !reflect.DeepEqual(*got, c.want) {
			t.Errorf("parse(%q) = %#v, want %#v", c.in, *got, c.want)
		}
	}
}

func TestParseArray(t *testing.T) {
	in := "*2\r\n$3\r\nGET\r\n$1\r\nk\r\n"
	got := mustParse(t, []byte(in))
	want := ArrayFrame([]Frame{BulkString("GET"), BulkString("k")})
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("got %#v, want %#v", *got, want)
	}
}

func TestParseNestedArray(t *testing.T) {
	in := "*1\r\n*2\r\n:1\r\n:2\r\n"
	got := mustParse(t, []byte(in))
	want := ArrayFrame([]Frame{ArrayFrame([]Frame{IntFrame(1), IntFrame(2)})})
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("got %#v, want %#v", *got, want)
	}
}

func TestParseInline(t *testing.T) {
	got := mustParse(t, []byte("PING\r\n"))
	want := ArrayFrame([]Frame{BulkString("PING")})
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("got %#v, want %#v", *got, want)
	}
}

func TestParseInlineMultipleArgs(t *testing.T) {
	got := mustParse(t, []byte("SET foo bar\r\n"))
	want := ArrayFrame([]Frame{BulkString("SET"), BulkString("foo"), BulkString("bar")})
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("got %#v, want %#v", *got, want)
	}
}

func TestParseLoneNewline(t *testing.T) {
	got := mustParse(t, []byte("+OK\n"))
	if got.Kind != Simple || got.Str != "OK" {
		t.Errorf("got %#v", *got)
	}
}

// TestPartialReadResumability exercises §8 scenario 7: a single '*' byte,
// then (after a pause) the rest of the array — the parser must not consume
// anything on the partial input and must produce the command exactly once
// on completion.
func TestPartialReadResumability(t *testing.T) {
	p := NewParser()
	p.Feed([]byte("*"))

	f, err := p.Next()
	if err != nil {
		t.Fatalf("unexpected error on partial input: %v", err)
	}
	if f != nil {
		t.Fatalf("expected nil frame on partial input, got %#v", *f)
	}
	if p.Buffered() != 1 {
		t.Fatalf("cursor must not advance on partial input, buffered=%d", p.Buffered())
	}

	p.Feed([]byte("2\r\n$3\r\nGET\r\n$1\r\nk\r\n"))
	f, err = p.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f == nil {
		t.Fatalf("expected complete frame after feeding the rest")
	}
	want := ArrayFrame([]Frame{BulkString("GET"), BulkString("k")})
	if !reflect.DeepEqual(*f, want) {
		t.Errorf("got %#v, want %#v", *f, want)
	}

	// Exactly one frame produced; nothing left buffered, a second Next call
	// must report "need more data" rather than re-emitting the command.
	if p.Buffered() != 0 {
		t.Fatalf("expected buffer drained, got %d bytes left", p.Buffered())
	}
	f, err = p.Next()
	if err != nil || f != nil {
		t.Fatalf("expected no further frame, got f=%v err=%v", f, err)
	}
}

func TestPartialBulkByteByByte(t *testing.T) {
	whole := []byte("$5\r\nhello\r\n")
	p := NewParser()
	var got *Frame
	for i := 0; i < len(whole); i++ {
		p.Feed(whole[i : i+1])
		f, err := p.Next()
		if err != nil {
			t.Fatalf("unexpected error at byte %d: %v", i, err)
		}
		if f != nil {
			got = f
			if i != len(whole)-1 {
				t.Fatalf("frame completed early at byte %d", i)
			}
		}
	}
	if got == nil {
		t.Fatal("frame never completed")
	}
	if !bytes.Equal(got.Bulk, []byte("hello")) {
		t.Errorf("got %q", got.Bulk)
	}
}

func TestFrameTooLarge(t *testing.T) {
	p := NewParser()
	// A bulk string claiming a length larger than MaxFrameSize, with no
	// terminator yet supplied: parser must eventually refuse rather than
	// growing the buffer unboundedly.
	p.Feed([]byte("$100000\r\n"))
	p.Feed(bytes.Repeat([]byte("a"), MaxFrameSize+1))
	_, err := p.Next()
	if err != ErrFrameTooLarge {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestMalformedLength(t *testing.T) {
	p := NewParser()
	p.Feed([]byte("$abc\r\n"))
	_, err := p.Next()
	if err != ErrMalformed {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestRoundTrip(t *testing.T) {
	frames := []Frame{
		SimpleFrame("OK"),
		ErrFrame("ERR bad"),
		IntFrame(123),
		IntFrame(-5),
		BulkString("hello world"),
		BulkString(""),
		NullFrame(),
		ArrayFrame([]Frame{BulkString("a"), IntFrame(1), ArrayFrame([]Frame{BulkString("nested")})}),
		ArrayFrame([]Frame{}),
	}
	for _, f := range frames {
		data := Marshal(f)
		p := NewParser()
		p.Feed(data)
		got, err := p.Next()
		if err != nil {
			t.Fatalf("marshal/parse round trip error for %#v: %v", f, err)
		}
		if got == nil {
			t.Fatalf("round trip produced no frame for %#v (encoded %q)", f, data)
		}
		if !reflect.DeepEqual(*got, f) {
			t.Errorf("round trip mismatch: got %#v, want %#v", *got, f)
		}
		if p.Buffered() != 0 {
			t.Errorf("round trip left %d bytes unconsumed for %#v", p.Buffered(), f)
		}
	}
}
