package ftp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReplyClass is the coarse classification of a server reply, derived from
// the first digit of the three-digit reply code.
type ReplyClass int

const (
	// ClassUnknown is returned for codes outside the 1xx-5xx range.
	ClassUnknown ReplyClass = iota

	// ClassPreliminary (1xx): the command was accepted and another reply
	// follows, typically around a data transfer.
	ClassPreliminary

	// ClassCompletion (2xx): the command completed successfully.
	ClassCompletion

	// ClassIntermediate (3xx): the command was accepted but the server
	// needs more information (e.g. PASS after USER, the transfer after REST).
	ClassIntermediate

	// ClassTransientNegative (4xx): the command failed but may succeed
	// if repeated later.
	ClassTransientNegative

	// ClassPermanentNegative (5xx): the command failed and repeating it
	// will not help.
	ClassPermanentNegative
)

// String returns a short name for the class, mainly for logging.
func (c ReplyClass) String() string {
	switch c {
	case ClassPreliminary:
		return "preliminary"
	case ClassCompletion:
		return "completion"
	case ClassIntermediate:
		return "intermediate"
	case ClassTransientNegative:
		return "transient-negative"
	case ClassPermanentNegative:
		return "permanent-negative"
	default:
		return "unknown"
	}
}

// Reply represents one parsed FTP server reply. A Reply is immutable once
// decoded; every control exchange produces exactly one.
type Reply struct {
	// Code is the three-digit reply code (e.g., 220, 550)
	Code int

	// Message is the human-readable message from the server
	Message string

	// Lines contains all raw lines of the reply (for multi-line replies)
	Lines []string
}

// Class returns the reply classification derived from the first digit.
func (r *Reply) Class() ReplyClass {
	if r.Code < 100 || r.Code >= 600 {
		return ClassUnknown
	}
	return ReplyClass(r.Code / 100)
}

// Is1xx returns true if the reply code is in the 1xx range (preliminary).
func (r *Reply) Is1xx() bool {
	return r.Code >= 100 && r.Code < 200
}

// Is2xx returns true if the reply code is in the 2xx range (success).
func (r *Reply) Is2xx() bool {
	return r.Code >= 200 && r.Code < 300
}

// Is3xx returns true if the reply code is in the 3xx range (intermediate).
func (r *Reply) Is3xx() bool {
	return r.Code >= 300 && r.Code < 400
}

// Is4xx returns true if the reply code is in the 4xx range (temporary failure).
func (r *Reply) Is4xx() bool {
	return r.Code >= 400 && r.Code < 500
}

// Is5xx returns true if the reply code is in the 5xx range (permanent failure).
func (r *Reply) Is5xx() bool {
	return r.Code >= 500 && r.Code < 600
}

// String returns the full reply as a string.
func (r *Reply) String() string {
	return strings.Join(r.Lines, "\n")
}

// encodeCommand builds the wire form of an FTP command: the verb, the
// space-joined arguments and the terminating CRLF.
//
// FTP commands are not binary-safe; a verb or argument containing CR or LF
// is an input error, not something to escape.
func encodeCommand(verb string, args ...string) ([]byte, error) {
	if verb == "" {
		return nil, fmt.Errorf("empty command verb")
	}
	if strings.ContainsAny(verb, "\r\n") {
		return nil, fmt.Errorf("command verb contains CR or LF: %q", verb)
	}
	for _, arg := range args {
		if strings.ContainsAny(arg, "\r\n") {
			return nil, fmt.Errorf("command argument contains CR or LF: %q", arg)
		}
	}

	var b strings.Builder
	b.WriteString(verb)
	for _, arg := range args {
		b.WriteByte(' ')
		b.WriteString(arg)
	}
	b.WriteString("\r\n")
	return []byte(b.String()), nil
}

// readReply reads a complete FTP reply from the reader.
// It handles both single-line and multi-line replies.
//
// Single-line format: "220 Welcome\r\n"
// Multi-line format:
//
//	"220-Welcome to FTP\r\n"
//	"220-This is line 2\r\n"
//	"220 Ready\r\n"
//
// The reply is complete when a line starts with the code followed by a space.
// A line that matches neither form, or a stream that closes mid-block,
// yields a *ProtocolError.
func readReply(r *bufio.Reader) (*Reply, error) {
	// Read the first line
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return nil, &ProtocolError{Reply: line}
		}
		return nil, err
	}

	line = strings.TrimRight(line, "\r\n")
	if len(line) < 4 {
		return nil, &ProtocolError{Reply: line}
	}

	code, err := strconv.Atoi(line[0:3])
	if err != nil {
		return nil, &ProtocolError{Reply: line}
	}

	lines := []string{line}

	// Optimization for the common single-line reply
	if line[3] == ' ' {
		return &Reply{
			Code:    code,
			Message: line[4:],
			Lines:   lines,
		}, nil
	}

	// Multi-line reply must start with '-'
	if line[3] != '-' {
		return nil, &ProtocolError{Reply: line, Code: code}
	}

	// Read remaining lines
	if err := readMultiLine(r, code, &lines); err != nil {
		return nil, err
	}

	// Build the message
	var messageLines []string
	for _, l := range lines {
		if len(l) > 4 {
			messageLines = append(messageLines, l[4:])
		}
	}

	return &Reply{
		Code:    code,
		Message: strings.Join(messageLines, "\n"),
		Lines:   lines,
	}, nil
}

func readMultiLine(r *bufio.Reader, code int, lines *[]string) error {
	codeStr := fmt.Sprintf("%03d", code)

	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				// Stream closed before the terminating "CODE " line.
				return &ProtocolError{Reply: strings.Join(*lines, "\n"), Code: code}
			}
			return err
		}

		line = strings.TrimRight(line, "\r\n")

		// Continuation lines inside a block may start with a space
		// (RFC 2389 feature listings do this).
		if len(line) > 0 && line[0] == ' ' {
			*lines = append(*lines, line)
			continue
		}

		// Standard continuation or end line
		if len(line) < 4 || line[0:3] != codeStr {
			return &ProtocolError{Reply: line, Code: code}
		}

		*lines = append(*lines, line)

		if line[3] == ' ' {
			return nil // End of reply
		}

		if line[3] != '-' {
			return &ProtocolError{Reply: line, Code: code}
		}
	}
}
