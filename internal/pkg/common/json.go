package common

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// ParseJSON 解析單一 JSON 值，數字保留為 json.Number，尾端多餘資料視為錯誤
func ParseJSON(data string, v interface{}) error {
	return decodeSingle(strings.NewReader(data), v)
}

// ParseJSONBytes 同 ParseJSON
func ParseJSONBytes(data []byte, v interface{}) error {
	return decodeSingle(bytes.NewReader(data), v)
}

func decodeSingle(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return eris.Wrap(err, "decode json")
	}
	if _, err := dec.Token(); err != io.EOF {
		return eris.New("unexpected data after JSON value")
	}
	return nil
}

// ExtractJSONObject 截取第一個 '{' 到最後一個 '}'
// 模型輸出常包在 code fence 或說明文字裡
func ExtractJSONObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}
