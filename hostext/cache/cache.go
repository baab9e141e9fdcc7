// Package cache exposes a Redis-backed key/value store as Rill host
// functions: cache::get, cache::set, cache::delete, cache::exists,
// cache::incr, cache::clear.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rill-lang/rill/internal/rill/rillerr"
	"github.com/rill-lang/rill/internal/rill/runtime"
	"github.com/rill-lang/rill/internal/rill/value"
)

// Config mirrors the teacher's CacheConfig: a key prefix and a default
// TTL applied when a caller's `set` omits one.
type Config struct {
	Prefix     string
	DefaultTTL time.Duration
}

func DefaultConfig() Config {
	return Config{Prefix: "rill:", DefaultTTL: 5 * time.Minute}
}

// Cache wraps a redis.Client with the Rill value<->bytes conversion the
// host functions need. Host calls are synchronous Go calls against
// context.Background(): §4.5 step 8's "async value" is realized here as
// an ordinary blocking round trip, since Go host functions have no
// suspension point to yield at.
type Cache struct {
	client *redis.Client
	cfg    Config
}

// New wraps an already-constructed client (production use, or a
// miniredis-backed client in tests).
func New(client *redis.Client, cfg Config) *Cache {
	return &Cache{client: client, cfg: cfg}
}

// NewWithAddr dials a Redis server directly, the common case for a host
// wiring this extension into a Context.
func NewWithAddr(addr, password string, db int) (*Cache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return New(client, DefaultConfig()), nil
}

func (c *Cache) key(k string) string { return c.cfg.Prefix + k }

// Register installs cache::get/set/delete/exists/incr/clear on rc.
func (c *Cache) Register(rc *runtime.Context) {
	rc.RegisterHostFunction("cache::get", &value.Callable{
		Kind: value.HostCallable, Name: "cache::get", Native: c.get,
	})
	rc.RegisterHostFunction("cache::set", &value.Callable{
		Kind: value.HostCallable, Name: "cache::set", Native: c.set,
	})
	rc.RegisterHostFunction("cache::delete", &value.Callable{
		Kind: value.HostCallable, Name: "cache::delete", Native: c.delete,
	})
	rc.RegisterHostFunction("cache::exists", &value.Callable{
		Kind: value.HostCallable, Name: "cache::exists", Native: c.exists,
	})
	rc.RegisterHostFunction("cache::incr", &value.Callable{
		Kind: value.HostCallable, Name: "cache::incr", Native: c.incr,
	})
	rc.RegisterHostFunction("cache::clear", &value.Callable{
		Kind: value.HostCallable, Name: "cache::clear", Native: c.clear,
	})
}

func (c *Cache) get(a *value.Args, _ interface{}) (value.Value, error) {
	k, ok := a.Get(0)
	if !ok || k.Kind() != value.KindString {
		return value.Null, rillerr.ArityError("cache::get", a.Len(), 1)
	}
	raw, err := c.client.Get(context.Background(), c.key(k.AsString())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return value.Null, nil
		}
		return value.Null, rillerr.TypeError("cache::get: " + err.Error())
	}
	return decodeValue(raw)
}

func (c *Cache) set(a *value.Args, _ interface{}) (value.Value, error) {
	k, ok := a.Get(0)
	v, vok := a.Get(1)
	if !ok || !vok || k.Kind() != value.KindString {
		return value.Null, rillerr.ArityError("cache::set", a.Len(), 2)
	}
	ttl := c.cfg.DefaultTTL
	if tv, ok := a.Get(2); ok && tv.Kind() == value.KindNumber {
		ttl = time.Duration(tv.AsNumber()) * time.Second
	}
	raw, err := encodeValue(v)
	if err != nil {
		return value.Null, err
	}
	if err := c.client.Set(context.Background(), c.key(k.AsString()), raw, ttl).Err(); err != nil {
		return value.Null, rillerr.TypeError("cache::set: " + err.Error())
	}
	return value.Bool(true), nil
}

func (c *Cache) delete(a *value.Args, _ interface{}) (value.Value, error) {
	k, ok := a.Get(0)
	if !ok || k.Kind() != value.KindString {
		return value.Null, rillerr.ArityError("cache::delete", a.Len(), 1)
	}
	if err := c.client.Del(context.Background(), c.key(k.AsString())).Err(); err != nil {
		return value.Null, rillerr.TypeError("cache::delete: " + err.Error())
	}
	return value.Bool(true), nil
}

func (c *Cache) exists(a *value.Args, _ interface{}) (value.Value, error) {
	k, ok := a.Get(0)
	if !ok || k.Kind() != value.KindString {
		return value.Null, rillerr.ArityError("cache::exists", a.Len(), 1)
	}
	count, err := c.client.Exists(context.Background(), c.key(k.AsString())).Result()
	if err != nil {
		return value.Null, rillerr.TypeError("cache::exists: " + err.Error())
	}
	return value.Bool(count > 0), nil
}

func (c *Cache) incr(a *value.Args, _ interface{}) (value.Value, error) {
	k, ok := a.Get(0)
	if !ok || k.Kind() != value.KindString {
		return value.Null, rillerr.ArityError("cache::incr", a.Len(), 1)
	}
	by := int64(1)
	if bv, ok := a.Get(1); ok && bv.Kind() == value.KindNumber {
		by = int64(bv.AsNumber())
	}
	n, err := c.client.IncrBy(context.Background(), c.key(k.AsString()), by).Result()
	if err != nil {
		return value.Null, rillerr.TypeError("cache::incr: " + err.Error())
	}
	return value.Number(float64(n)), nil
}

func (c *Cache) clear(_ *value.Args, _ interface{}) (value.Value, error) {
	ctx := context.Background()
	iter := c.client.Scan(ctx, 0, c.cfg.Prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return value.Null, rillerr.TypeError("cache::clear: " + err.Error())
		}
	}
	if err := iter.Err(); err != nil {
		return value.Null, rillerr.TypeError("cache::clear: " + err.Error())
	}
	return value.Bool(true), nil
}

// encodeValue/decodeValue round-trip a Rill value through JSON so strings,
// numbers, bools, tuples, and dicts all survive a cache round trip, not
// just strings.
func encodeValue(v value.Value) ([]byte, error) {
	return json.Marshal(toGo(v))
}

func decodeValue(raw []byte) (value.Value, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return value.Null, rillerr.TypeError("cache: stored value is not valid json")
	}
	return fromGo(v), nil
}

func toGo(v value.Value) interface{} {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		return v.AsBool()
	case value.KindNumber:
		return v.AsNumber()
	case value.KindString:
		return v.AsString()
	case value.KindTuple:
		elems := v.AsTuple()
		out := make([]interface{}, len(elems))
		for i, e := range elems {
			out[i] = toGo(e)
		}
		return out
	case value.KindDict:
		d := v.AsDict()
		out := make(map[string]interface{}, d.Len())
		for _, k := range d.Keys() {
			ev, _ := d.Get(k)
			out[k] = toGo(ev)
		}
		return out
	default:
		return v.String()
	}
}

func fromGo(v interface{}) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Null
	case bool:
		return value.Bool(t)
	case float64:
		return value.Number(t)
	case string:
		return value.String(t)
	case []interface{}:
		out := make([]value.Value, len(t))
		for i, e := range t {
			out[i] = fromGo(e)
		}
		return value.Tuple(out)
	case map[string]interface{}:
		d := value.NewDict()
		for k, ev := range t {
			d.Set(k, fromGo(ev))
		}
		return value.DictValue(d)
	default:
		return value.Null
	}
}
