//go:build sonic

package ghapi

import (
	"github.com/bytedance/sonic"
)

// for imroc/req
var jsonMarshal = sonic.Marshal
var jsonUmarshal = sonic.Unmarshal
