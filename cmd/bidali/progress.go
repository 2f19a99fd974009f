package main

import (
	"io"
	"os"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// progressBar is a single mpb bar on stderr. A nil *progressBar is a no-op.
type progressBar struct {
	pbs *mpb.Progress
	bar *mpb.Bar
}

// newCountBar creates a bar counting total items.
func newCountBar(enabled bool, name string, total int64) *progressBar {
	if !enabled {
		return nil
	}
	pbs := mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
	bar := pbs.AddBar(total,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name), C: decor.DindentRight}),
			decor.Name("", decor.WCSyncSpaceR),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
			decor.EwmaETA(decor.ET_STYLE_GO, 30),
			decor.OnComplete(decor.Name(""), ". done"),
		),
	)
	return &progressBar{pbs: pbs, bar: bar}
}

// newByteBar creates a bar counting bytes; total <= 0 means unknown size.
func newByteBar(enabled bool, name string, total int64) *progressBar {
	if !enabled {
		return nil
	}
	if total < 0 {
		total = 0
	}
	pbs := mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
	bar := pbs.AddBar(total,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name), C: decor.DindentRight}),
			decor.Name("", decor.WCSyncSpaceR),
			decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
			decor.OnComplete(decor.Name(""), " done"),
		),
	)
	return &progressBar{pbs: pbs, bar: bar}
}

// Increment advances the bar by one.
func (p *progressBar) Increment() {
	if p == nil {
		return
	}
	p.bar.Increment()
}

// ProxyReader counts bytes read from r.
func (p *progressBar) ProxyReader(r io.Reader) io.Reader {
	if p == nil {
		return r
	}
	return p.bar.ProxyReader(r)
}

// Wait finishes the bar. Bars left incomplete by errors or cancellation are
// aborted so Wait does not block.
func (p *progressBar) Wait() {
	if p == nil {
		return
	}
	if !p.bar.Completed() {
		p.bar.Abort(false)
	}
	p.pbs.Wait()
}
