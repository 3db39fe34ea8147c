package client

// Ping sends PING and returns the server's reply.
func (c *Client) Ping() (interface{}, error) { return c.Do("PING") }

// Select switches this connection's active database.
func (c *Client) Select(index int) (interface{}, error) { return c.Do("SELECT", index) }

// Get retrieves the value of key.
func (c *Client) Get(key string) (interface{}, error) { return c.Do("GET", key) }

// Set sets key to value.
func (c *Client) Set(key string, value interface{}) (interface{}, error) {
	return c.Do("SET", key, value)
}

// Del deletes one or more keys.
func (c *Client) Del(keys ...string) (interface{}, error) {
	args := make([]interface{}, 0, len(keys)+1)
	args = append(args, "DEL")
	for _, k := range keys {
		args = append(args, k)
	}
	return c.Do(args...)
}

// Expire sets a TTL, in seconds, on key.
func (c *Client) Expire(key string, seconds int) (interface{}, error) {
	return c.Do("EXPIRE", key, seconds)
}

// TTL returns the remaining time to live of key, in seconds.
func (c *Client) TTL(key string) (interface{}, error) { return c.Do("TTL", key) }

// LPush prepends one or more values to a list.
func (c *Client) LPush(key string, values ...interface{}) (interface{}, error) {
	args := append([]interface{}{"LPUSH", key}, values...)
	return c.Do(args...)
}

// RPush appends one or more values to a list.
func (c *Client) RPush(key string, values ...interface{}) (interface{}, error) {
	args := append([]interface{}{"RPUSH", key}, values...)
	return c.Do(args...)
}

// LRange returns the elements of a list between start and stop, inclusive.
func (c *Client) LRange(key string, start, stop int) (interface{}, error) {
	return c.Do("LRANGE", key, start, stop)
}

// SAdd adds one or more members to a set.
func (c *Client) SAdd(key string, members ...interface{}) (interface{}, error) {
	args := append([]interface{}{"SADD", key}, members...)
	return c.Do(args...)
}

// SMembers returns every member of a set.
func (c *Client) SMembers(key string) (interface{}, error) { return c.Do("SMEMBERS", key) }

// HSet sets a field in a hash.
func (c *Client) HSet(key, field string, value interface{}) (interface{}, error) {
	return c.Do("HSET", key, field, value)
}

// HGet returns a field's value from a hash.
func (c *Client) HGet(key, field string) (interface{}, error) { return c.Do("HGET", key, field) }

// HGetAll returns every field/value pair in a hash, flattened.
func (c *Client) HGetAll(key string) (interface{}, error) { return c.Do("HGETALL", key) }

// ZAdd adds a scored member to a sorted set.
func (c *Client) ZAdd(key string, score float64, member string) (interface{}, error) {
	return c.Do("ZADD", key, score, member)
}

// ZRange returns members of a sorted set between start and stop by rank.
func (c *Client) ZRange(key string, start, stop int) (interface{}, error) {
	return c.Do("ZRANGE", key, start, stop)
}

// Save triggers a synchronous snapshot.
func (c *Client) Save() (interface{}, error) { return c.Do("SAVE") }

// BGSave triggers a background snapshot.
func (c *Client) BGSave() (interface{}, error) { return c.Do("BGSAVE") }

// Shutdown asks the server to save (if save is true) and exit.
func (c *Client) Shutdown(save bool) (interface{}, error) {
	if save {
		return c.Do("SHUTDOWN", "SAVE")
	}
	return c.Do("SHUTDOWN", "NOSAVE")
}
