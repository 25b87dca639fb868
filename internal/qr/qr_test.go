// internal/qr/qr_test.go
package qr

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		data string
		want string
	}{
		{"fiscal fn param", "t=20240101T1200&s=123.45&fn=9280440301000000&i=1&fp=1234567890&n=1", "fiscal"},
		{"fiscal tsfpn trio without fn", "t=20240101T1200&s=123.45&fp=1234567890", "fiscal"},
		{"https url", "https://example.com/r/123", "url"},
		{"http url", "http://example.com/r/123", "url"},
		{"unknown", "some opaque payload", "unknown"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Classify(c.data)
			if string(got) != c.want {
				t.Errorf("Classify(%q) = %q, want %q", c.data, got, c.want)
			}
		})
	}
}

func TestDecode_InvalidImageReturnsNotOK(t *testing.T) {
	_, ok := Decode([]byte("not an image"))
	if ok {
		t.Fatal("expected ok=false for an undecodable buffer")
	}
}

func TestSelectFromBuffers_BothInvalidReturnsNotOK(t *testing.T) {
	_, ok := SelectFromBuffers([]byte("warped garbage"), []byte("preprocessed garbage"))
	if ok {
		t.Fatal("expected ok=false when neither buffer decodes")
	}
}
