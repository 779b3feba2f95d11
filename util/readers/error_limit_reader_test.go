package readers

import (
	"bytes"
	"errors"
	"io/ioutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/turt2live/pack-repo/common"
)

func TestLimitReaderWithinLimit(t *testing.T) {
	r := LimitReaderWithOverrunError(ioutil.NopCloser(bytes.NewReader([]byte("12345"))), 5)
	b, err := ioutil.ReadAll(r)
	assert.NoError(t, err)
	assert.Equal(t, "12345", string(b))
}

func TestLimitReaderOverrun(t *testing.T) {
	r := LimitReaderWithOverrunError(ioutil.NopCloser(bytes.NewReader([]byte("123456"))), 5)
	_, err := ioutil.ReadAll(r)
	assert.True(t, errors.Is(err, common.ErrMediaTooLarge))
}

func TestLimitReaderEmpty(t *testing.T) {
	r := LimitReaderWithOverrunError(ioutil.NopCloser(bytes.NewReader(nil)), 0)
	b, err := ioutil.ReadAll(r)
	assert.NoError(t, err)
	assert.Empty(t, b)
}
