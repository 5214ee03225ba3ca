package cache

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"probe key", "health_check", nil},
		{"namespaced", "taskqueue:result:1", nil},
		{"empty", "", ErrInvalidKey},
		{"whitespace", "   ", ErrInvalidKey},
		{"newline", "health\ncheck", ErrInvalidKey},
		{"carriage return", "health\rcheck", ErrInvalidKey},
		{"max length", strings.Repeat("k", MaxKeyLength), nil},
		{"too long", strings.Repeat("k", MaxKeyLength+1), ErrKeyTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestStoreInterface_CompileCheck(t *testing.T) {
	var _ Store = (*MemoryStore)(nil)
	var _ Store = (*RedisStore)(nil)
	var _ Store = (*failedStore)(nil)
}
