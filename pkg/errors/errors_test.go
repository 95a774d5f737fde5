package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"Nil", nil, 0},
		{"Usage", New(ErrCodeUsage, "bad flag"), ExitUsage},
		{"BadSelector", New(ErrCodeBadSelector, "bad selector"), ExitUsage},
		{"BadEdge", New(ErrCodeBadEdge, "bad edge"), ExitUsage},
		{"BadPath", New(ErrCodeBadPath, "bad path"), ExitUsage},
		{"ObjectNotFound", New(ErrCodeObjectNotFound, "no such object"), ExitResolution},
		{"ConnectionNotFound", New(ErrCodeConnectionNotFound, "no such cable"), ExitResolution},
		{"FileNotFound", New(ErrCodeFileNotFound, "no such file"), ExitResolution},
		{"InvalidPort", New(ErrCodeInvalidPort, "out of range"), ExitValidation},
		{"BadDocument", New(ErrCodeBadDocument, "not a patcher"), ExitValidation},
		{"CheckFailed", New(ErrCodeCheckFailed, "strict"), ExitValidation},
		{"ExportRefused", New(ErrCodeExportRefused, "exists"), ExitValidation},
		{"Internal", New(ErrCodeInternal, "boom"), ExitInternal},
		{"Uncoded", stderrors.New("plain"), ExitInternal},
		{"WrappedKeepsCode", fmt.Errorf("outer: %w", New(ErrCodeUsage, "inner")), ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("permission denied")
	err := Wrap(ErrCodeBadDocument, cause, "cannot load %s", "a.maxpat")

	if !stderrors.Is(err, cause) {
		t.Error("wrapped error lost its cause")
	}
	if !Is(err, ErrCodeBadDocument) {
		t.Error("Is() = false for the wrapping code")
	}
	if Is(err, ErrCodeUsage) {
		t.Error("Is() = true for an unrelated code")
	}
	if !strings.Contains(err.Error(), "permission denied") {
		t.Errorf("Error() = %q, want cause included", err.Error())
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeInvalidPort, "x")); got != ErrCodeInvalidPort {
		t.Errorf("GetCode() = %q, want %q", got, ErrCodeInvalidPort)
	}
	if got := GetCode(stderrors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeObjectNotFound, "no object matches %q", "obj-9")
	if got := UserMessage(err); got != `no object matches "obj-9"` {
		t.Errorf("UserMessage() = %q", got)
	}
	if strings.Contains(UserMessage(err), string(ErrCodeObjectNotFound)) {
		t.Error("UserMessage leaked the code prefix")
	}
	if got := UserMessage(stderrors.New("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}
