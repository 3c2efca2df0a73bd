package globalkey

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/tj/assert"
)

type testUser struct {
	ID   uint
	Name string
}

func jsonify(val any) []byte {
	b, _ := json.Marshal(val)
	return b
}

func TestKeyLoadMissing(t *testing.T) {
	var (
		db, mock = redismock.NewClientMock()
		key      = NewKey[*testUser]("test$$struct", db)
	)

	mock.ExpectGet("test$$struct").RedisNil()

	u, ok := key.Load(context.Background())
	assert.False(t, ok)
	assert.Nil(t, u)
}

func TestKeyStoreLoad(t *testing.T) {
	var (
		ctx      = context.Background()
		db, mock = redismock.NewClientMock()
		expiring = NewKey[*testUser]("test$$struct", db, OptExpires(time.Minute))
		key      = NewKey[*testUser]("test$$struct", db)
		user     = &testUser{ID: 10, Name: "bob"}
	)

	mock.ExpectSet("test$$struct", jsonify(user), time.Minute).SetVal("OK")
	mock.ExpectGet("test$$struct").SetVal(string(jsonify(user)))

	assert.NoError(t, expiring.Store(ctx, user))

	u, ok := key.Load(ctx)
	assert.True(t, ok)
	assert.Equal(t, user, u)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestKeyRemove(t *testing.T) {
	var (
		db, mock = redismock.NewClientMock()
		key      = NewKey[string]("test$$string", db)
	)

	mock.ExpectDel("test$$string").SetVal(1)
	assert.NoError(t, key.Remove(context.Background()))

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
