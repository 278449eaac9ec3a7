package ftp

import (
	"bufio"
	"errors"
	"strings"
	"testing"
)

func TestReadReply_SingleLine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		wantCode int
		wantMsg  string
		wantErr  bool
	}{
		{
			name:     "simple success",
			input:    "220 Welcome\r\n",
			wantCode: 220,
			wantMsg:  "Welcome",
			wantErr:  false,
		},
		{
			name:     "error reply",
			input:    "550 File not found\r\n",
			wantCode: 550,
			wantMsg:  "File not found",
			wantErr:  false,
		},
		{
			name:     "code with no message",
			input:    "200 \r\n",
			wantCode: 200,
			wantMsg:  "",
			wantErr:  false,
		},
		{
			name:    "line too short",
			input:   "22\r\n",
			wantErr: true,
		},
		{
			name:    "non-numeric code",
			input:   "abc hello\r\n",
			wantErr: true,
		},
		{
			name:    "missing separator",
			input:   "220Welcome\r\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := bufio.NewReader(strings.NewReader(tt.input))
			reply, err := readReply(reader)

			if (err != nil) != tt.wantErr {
				t.Errorf("readReply() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if err == nil {
				if reply.Code != tt.wantCode {
					t.Errorf("readReply() code = %v, want %v", reply.Code, tt.wantCode)
				}
				if reply.Message != tt.wantMsg {
					t.Errorf("readReply() message = %v, want %v", reply.Message, tt.wantMsg)
				}
			} else {
				var pe *ProtocolError
				if !errors.As(err, &pe) {
					t.Errorf("readReply() error = %T, want *ProtocolError", err)
				}
			}
		})
	}
}

func TestReadReply_MultiLine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		wantCode int
		wantMsg  string
		wantErr  bool
	}{
		{
			name: "multi-line reply",
			input: "220-Welcome to FTP\r\n" +
				"220-This is line 2\r\n" +
				"220 Ready\r\n",
			wantCode: 220,
			wantMsg:  "Welcome to FTP\nThis is line 2\nReady",
			wantErr:  false,
		},
		{
			name: "transfer complete",
			input: "226-Transfer complete\r\n" +
				"226 Closing data connection\r\n",
			wantCode: 226,
			wantMsg:  "Transfer complete\nClosing data connection",
			wantErr:  false,
		},
		{
			name: "mismatched end code",
			input: "220-Welcome\r\n" +
				"550 Ready\r\n",
			wantErr: true,
		},
		{
			name:    "unterminated block",
			input:   "220-Welcome\r\n220-Still going\r\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := bufio.NewReader(strings.NewReader(tt.input))
			reply, err := readReply(reader)

			if (err != nil) != tt.wantErr {
				t.Errorf("readReply() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if err == nil {
				if reply.Code != tt.wantCode {
					t.Errorf("readReply() code = %v, want %v", reply.Code, tt.wantCode)
				}
				if reply.Message != tt.wantMsg {
					t.Errorf("readReply() message = %q, want %q", reply.Message, tt.wantMsg)
				}
			}
		})
	}
}

func TestReadReply_ContinuationWithLeadingSpace(t *testing.T) {
	t.Parallel()
	// Feature-listing style block where continuation lines start with a space.
	input := "211-Extensions supported:\r\n" +
		" SIZE\r\n" +
		" MDTM\r\n" +
		"211 END\r\n"

	reader := bufio.NewReader(strings.NewReader(input))
	reply, err := readReply(reader)
	if err != nil {
		t.Fatalf("readReply failed on continuation block: %v", err)
	}

	if reply.Code != 211 {
		t.Errorf("expected code 211, got %d", reply.Code)
	}
	if len(reply.Lines) != 4 {
		t.Errorf("expected 4 lines, got %d", len(reply.Lines))
	}
}

func TestEncodeCommand(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		verb    string
		args    []string
		want    string
		wantErr bool
	}{
		{
			name: "bare verb",
			verb: "PASV",
			want: "PASV\r\n",
		},
		{
			name: "verb with one argument",
			verb: "RETR",
			args: []string{"file.txt"},
			want: "RETR file.txt\r\n",
		},
		{
			name: "verb with several arguments",
			verb: "SITE",
			args: []string{"CHMOD", "755", "run.sh"},
			want: "SITE CHMOD 755 run.sh\r\n",
		},
		{
			name:    "empty verb",
			verb:    "",
			wantErr: true,
		},
		{
			name:    "CR in verb",
			verb:    "RE\rTR",
			wantErr: true,
		},
		{
			name:    "LF in argument",
			verb:    "RETR",
			args:    []string{"file\n.txt"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encodeCommand(tt.verb, tt.args...)

			if (err != nil) != tt.wantErr {
				t.Errorf("encodeCommand() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if err == nil && string(got) != tt.want {
				t.Errorf("encodeCommand() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReplyClass(t *testing.T) {
	t.Parallel()
	tests := []struct {
		code int
		want ReplyClass
	}{
		{150, ClassPreliminary},
		{220, ClassCompletion},
		{226, ClassCompletion},
		{331, ClassIntermediate},
		{350, ClassIntermediate},
		{421, ClassTransientNegative},
		{530, ClassPermanentNegative},
		{0, ClassUnknown},
		{999, ClassUnknown},
	}

	for _, tt := range tests {
		reply := &Reply{Code: tt.code}
		if got := reply.Class(); got != tt.want {
			t.Errorf("Reply{%d}.Class() = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestReply_CodeChecks(t *testing.T) {
	t.Parallel()
	tests := []struct {
		code  int
		is1xx bool
		is2xx bool
		is3xx bool
		is4xx bool
		is5xx bool
	}{
		{150, true, false, false, false, false},
		{220, false, true, false, false, false},
		{331, false, false, true, false, false},
		{421, false, false, false, true, false},
		{550, false, false, false, false, true},
	}

	for _, tt := range tests {
		reply := &Reply{Code: tt.code}

		if reply.Is1xx() != tt.is1xx {
			t.Errorf("Reply{%d}.Is1xx() = %v, want %v", tt.code, reply.Is1xx(), tt.is1xx)
		}
		if reply.Is2xx() != tt.is2xx {
			t.Errorf("Reply{%d}.Is2xx() = %v, want %v", tt.code, reply.Is2xx(), tt.is2xx)
		}
		if reply.Is3xx() != tt.is3xx {
			t.Errorf("Reply{%d}.Is3xx() = %v, want %v", tt.code, reply.Is3xx(), tt.is3xx)
		}
		if reply.Is4xx() != tt.is4xx {
			t.Errorf("Reply{%d}.Is4xx() = %v, want %v", tt.code, reply.Is4xx(), tt.is4xx)
		}
		if reply.Is5xx() != tt.is5xx {
			t.Errorf("Reply{%d}.Is5xx() = %v, want %v", tt.code, reply.Is5xx(), tt.is5xx)
		}
	}
}

func TestProtocolError(t *testing.T) {
	t.Parallel()
	err := &ProtocolError{
		Command: "STOR file.txt",
		Reply:   "Permission denied",
		Code:    550,
	}

	if !err.Is5xx() {
		t.Error("ProtocolError with code 550 should be Is5xx()")
	}

	if !err.IsPermanent() {
		t.Error("ProtocolError with code 550 should be IsPermanent()")
	}

	if err.IsTemporary() {
		t.Error("ProtocolError with code 550 should not be IsTemporary()")
	}

	expectedMsg := "ftp: STOR file.txt failed: Permission denied (code 550)"
	if err.Error() != expectedMsg {
		t.Errorf("ProtocolError.Error() = %q, want %q", err.Error(), expectedMsg)
	}
}
