// Copyright 2020 Nathan Taylor (nbtaylor@gmail.com)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package qsync

import "github.com/rs/zerolog"

// Diagnostic tracing. Every primitive defaults to zerolog.Nop(); nothing here ever
// writes unless a caller opts in with WithLogger.

func logSuspended(log *zerolog.Logger, primitive string, queued int) {
	log.Debug().Str("primitive", primitive).Int("queued", queued).Msg("caller suspended")
}

func logSignalled(log *zerolog.Logger, primitive string) {
	log.Debug().Str("primitive", primitive).Msg("caller signalled")
}

func logTimedOut(log *zerolog.Logger, primitive string) {
	log.Debug().Str("primitive", primitive).Msg("caller timed out")
}

func logCancelled(log *zerolog.Logger, primitive string, err error) {
	log.Debug().Str("primitive", primitive).Err(err).Msg("caller cancelled")
}

func logDisposed(log *zerolog.Logger, primitive string) {
	log.Debug().Str("primitive", primitive).Msg("primitive disposed")
}
