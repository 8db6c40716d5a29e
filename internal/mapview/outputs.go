package mapview

import (
	"bytes"
	"io"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mohammed-shakir/uk-towns-map/internal/core/observability"
	"github.com/mohammed-shakir/uk-towns-map/internal/render"
)

const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// outputCache keeps serialized scenes by format and revision. Revisions only
// grow, so an entry never goes stale; old ones age out.
type outputCache struct {
	lru *lru.Cache[string, []byte]
}

func newOutputCache(size int) *outputCache {
	if size <= 0 {
		size = 32
	}
	c, _ := lru.New[string, []byte](size)
	return &outputCache{lru: c}
}

func outputKey(format string, rev uint64) string {
	return format + ":" + strconv.FormatUint(rev, 10)
}

func (c *Controller) WriteSVG(w io.Writer) error {
	return c.write(w, FormatSVG, render.WriteSVG)
}

func (c *Controller) WritePNG(w io.Writer) error {
	return c.write(w, FormatPNG, render.WritePNG)
}

func (c *Controller) write(w io.Writer, format string, enc func(io.Writer, *render.Scene) error) error {
	c.mu.RLock()
	key := outputKey(format, c.scene.Revision)
	if b, ok := c.outputs.lru.Get(key); ok {
		c.mu.RUnlock()
		observability.IncCacheHit("render")
		_, err := w.Write(b)
		return err
	}

	start := time.Now()
	var buf bytes.Buffer
	err := enc(&buf, c.scene)
	c.mu.RUnlock()
	if err != nil {
		return err
	}
	observability.IncCacheMiss("render")
	observability.ObserveRender(format, time.Since(start).Seconds())

	c.outputs.lru.Add(key, buf.Bytes())
	_, err = w.Write(buf.Bytes())
	return err
}
