// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package jsonl reads contract events from newline-delimited JSON, one
// message per line
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/blinklabs-io/markstream/source"
)

// MaxLineSize bounds a single JSON line
const MaxLineSize = 1024 * 1024

type Source struct {
	closer  io.Closer
	scanner *bufio.Scanner
	line    int
}

// New returns a source reading from r. Blank lines are ignored.
func New(r io.Reader) *Source {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
	s := &Source{
		scanner: scanner,
	}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Open returns a source reading the named file, or stdin for "-"
func Open(path string) (*Source, error) {
	if path == "-" {
		return New(io.NopCloser(os.Stdin)), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event file: %w", err)
	}
	return New(f), nil
}

// Next returns the next event. Malformed lines are reported with their line
// number and skipped on the following call.
func (s *Source) Next(ctx context.Context) (source.Delivery, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, fmt.Errorf("read line %d: %w", s.line+1, err)
			}
			return nil, io.EOF
		}
		s.line++
		data := bytes.TrimSpace(s.scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		evt, err := source.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", s.line, err)
		}
		return source.StaticDelivery{Evt: evt}, nil
	}
}

// Line returns the number of the last line read
func (s *Source) Line() int {
	return s.line
}

func (s *Source) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}
