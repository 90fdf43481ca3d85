package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"go_lms_hub/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Redisが起動していなくてもアプリは動き続ける。その縮退経路のテスト。
func TestRedis_UnavailableBypass(t *testing.T) {
	ctx := context.Background()
	testLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// 到達できないアドレスを指定すると client=nil で生成される
	r := NewRedis(&config.RedisConfig{Addr: "127.0.0.1:1"}, testLogger)

	t.Run("正常系: GetJSONは常にミス扱いでエラーを返さない", func(t *testing.T) {
		var out map[string]any
		hit, err := r.GetJSON(ctx, "courses:slug:go-basics", &out)
		require.NoError(t, err)
		assert.False(t, hit)
	})

	t.Run("正常系: 書き込み系はno-opでエラーを返さない", func(t *testing.T) {
		assert.NoError(t, r.SetJSON(ctx, "courses:slug:go-basics", map[string]string{"title": "Go"}, time.Minute))
		assert.NoError(t, r.Delete(ctx, "courses:slug:go-basics"))
		assert.NoError(t, r.DeleteByPattern(ctx, "courses:list:*"))
	})

	t.Run("異常系: Pingは利用不可エラーを返す", func(t *testing.T) {
		assert.Error(t, r.Ping(ctx))
	})
}

func TestRedis_NilReceiver(t *testing.T) {
	ctx := context.Background()
	var r *Redis

	// DIの都合でnilが渡っても落とさない
	hit, err := r.GetJSON(ctx, "key", &struct{}{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, r.SetJSON(ctx, "key", "value", time.Minute))
	assert.NoError(t, r.Delete(ctx, "key"))
}
