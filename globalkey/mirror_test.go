package globalkey

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/hnhuaxi/weakstatic/singleton"
	"github.com/tj/assert"
)

func testMirror(t *testing.T, db *redis.Client) (*Mirror, *singleton.Handle[*redis.Client]) {
	client := singleton.DeclareFunc(t.Name()+"/redis", func() *redis.Client { return db })

	m := NewMirror(client, "ws")
	m.host = "test-host"
	m.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	// keep the mock client open for the whole test
	return m, client.MustAcquire()
}

func TestMirrorLifecycle(t *testing.T) {
	var (
		db, mock = redismock.NewClientMock()
		m, h     = testMirror(t, db)
	)
	defer h.Release()

	s := singleton.DeclareFunc("db", func() int { return 1 }, singleton.WithObserver(m))

	mock.ExpectIncr("ws:db:live").SetVal(1)
	mock.ExpectSet("ws:db:current", jsonify(Generation{
		Static:     "db",
		Generation: 1,
		Host:       "test-host",
		At:         time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}), 0).SetVal("OK")
	mock.ExpectDecr("ws:db:live").SetVal(0)

	assert.NoError(t, s.MustAcquire().Release())

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMirrorQueries(t *testing.T) {
	var (
		ctx      = context.Background()
		db, mock = redismock.NewClientMock()
		m, h     = testMirror(t, db)
		gen      = Generation{Static: "cache", Generation: 4, Host: "other"}
	)
	defer h.Release()

	mock.ExpectGet("ws:cache:live").SetVal("2")
	mock.ExpectGet("ws:cache:current").SetVal(string(jsonify(gen)))
	mock.ExpectGet("ws:gone:live").RedisNil()

	n, err := m.Live(ctx, "cache")
	assert.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, ok := m.Current(ctx, "cache")
	assert.True(t, ok)
	assert.Equal(t, gen, got)

	_, err = m.Live(ctx, "gone")
	assert.Error(t, err)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMirrorRedisFailureIsLogged(t *testing.T) {
	var (
		db, mock = redismock.NewClientMock()
		m, h     = testMirror(t, db)
	)
	defer h.Release()

	s := singleton.DeclareFunc(t.Name(), func() int { return 1 }, singleton.WithObserver(m))

	mock.ExpectIncr("ws:" + t.Name() + ":live").SetErr(redis.ErrClosed)

	// the lifecycle itself never fails because of the mirror
	hh, err := s.Acquire()
	assert.NoError(t, err)
	assert.Equal(t, 1, hh.Value())
	assert.NoError(t, hh.Release())
}
