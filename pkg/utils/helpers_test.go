package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCalculateMD5(t *testing.T) {
	// 空输入也有稳定的MD5，上传去重依赖这一点
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", CalculateMD5(nil))
	assert.Equal(t, "9e107d9d372bb6826bd81d3542a419d6", CalculateMD5([]byte("The quick brown fox jumps over the lazy dog")))
}

func TestConvertArrayToJSON(t *testing.T) {
	assert.Equal(t, "[]", string(ConvertArrayToJSON(nil)))
	assert.Equal(t, "[]", string(ConvertArrayToJSON([]string{})))
	assert.Equal(t, `["go","mysql"]`, string(ConvertArrayToJSON([]string{"go", "mysql"})))
}

func TestPointerHelpers(t *testing.T) {
	s := StringPtr("web_upload")
	assert.Equal(t, "web_upload", *s)

	assert.Nil(t, TimePtr(time.Time{}))
	now := time.Now()
	assert.Equal(t, now, *TimePtr(now))
}
