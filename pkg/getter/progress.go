/*
Copyright The Distpull Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package getter

import (
	"io"
	"time"
)

// emitInterval bounds the progress event rate during a transfer. A
// final event is always emitted by flush regardless of the interval.
const emitInterval = 250 * time.Millisecond

// progressWriter counts bytes flowing to the underlying writer and
// reports them to an observer at a bounded rate. With a nil observer it
// degrades to a plain pass-through.
type progressWriter struct {
	w       io.Writer
	written int64
	total   int64
	fn      ProgressFunc
	last    time.Time
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.written += int64(n)
	if p.fn != nil && time.Since(p.last) >= emitInterval {
		p.last = time.Now()
		p.fn(Progress{BytesTransferred: p.written, TotalBytes: p.total})
	}
	return n, err
}

// flush emits the terminal progress event so observers can render a
// completed transfer.
func (p *progressWriter) flush() {
	if p.fn != nil {
		p.fn(Progress{BytesTransferred: p.written, TotalBytes: p.total})
	}
}
