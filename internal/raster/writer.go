package raster

import (
	"encoding/binary"
	"math"
	"os"

	"github.com/rotisserie/eris"
)

// WriteOptions control scratch raster layout.
type WriteOptions struct {
	// RowsPerStrip sets the strip height; 0 means one strip per raster.
	RowsPerStrip int
	// SparseOK writes all-zero strips with a zero byte count instead of
	// pixel data, producing the sparse holes Coverage detects.
	SparseOK bool
	// Palette embeds a color table and marks the file palette-indexed.
	Palette Palette
}

// Write writes a single-band 8-bit GeoTIFF to path and fully flushes and
// closes it before returning, so the file is immediately reopenable.
// pixels is row-major and must hold width*height bytes.
func Write(path string, width, height int, gt GeoTransform, pixels []byte, opts WriteOptions) error {
	if len(pixels) < width*height {
		return eris.Errorf("raster: %d pixels for %dx%d raster", len(pixels), width, height)
	}

	rps := opts.RowsPerStrip
	if rps <= 0 || rps > height {
		rps = height
	}
	nStrips := (height + rps - 1) / rps

	// strip data immediately follows the 8-byte header
	var data []byte
	offsets := make([]uint32, nStrips)
	counts := make([]uint32, nStrips)
	for i := 0; i < nStrips; i++ {
		r0 := i * rps
		r1 := min(r0+rps, height)
		strip := pixels[r0*width : r1*width]
		if opts.SparseOK && allZero(strip) {
			continue // offset 0, count 0: sparse hole
		}
		offsets[i] = uint32(8 + len(data))
		counts[i] = uint32(len(strip))
		data = append(data, strip...)
	}

	w := &tiffWriter{}
	w.tagValues(tagImageWidth, typeLong, []uint32{uint32(width)})
	w.tagValues(tagImageLength, typeLong, []uint32{uint32(height)})
	w.tagValues(tagBitsPerSample, typeShort, []uint32{8})
	w.tagShort(tagCompression, compressionNone)
	photometric := uint32(1) // BlackIsZero
	if len(opts.Palette) > 0 {
		photometric = 3
	}
	w.tagShort(262, photometric)
	w.tagValues(tagStripOffsets, typeLong, offsets)
	w.tagShort(tagSamplesPerPixel, 1)
	w.tagValues(tagRowsPerStrip, typeLong, []uint32{uint32(rps)})
	w.tagValues(tagStripByteCounts, typeLong, counts)
	if len(opts.Palette) > 0 {
		cm := make([]uint32, 3*len(opts.Palette))
		for i, c := range opts.Palette {
			cm[i] = uint32(c.R) << 8
			cm[len(opts.Palette)+i] = uint32(c.G) << 8
			cm[2*len(opts.Palette)+i] = uint32(c.B) << 8
		}
		w.tagValues(tagColorMap, typeShort, cm)
	}
	w.tagDoubles(tagModelPixelScale, []float64{math.Abs(gt.XPixel), math.Abs(gt.YPixel), 0})
	w.tagDoubles(tagModelTiepoint, []float64{0, 0, 0, gt.XOrigin, gt.YOrigin, 0})

	ifdOffset := 8 + len(data)
	file := make([]byte, 0, ifdOffset+len(w.ifd)+len(w.extra)+16)
	file = append(file, 'I', 'I', 42, 0)
	file = binary.LittleEndian.AppendUint32(file, uint32(ifdOffset))
	file = append(file, data...)
	file = append(file, w.render(uint32(ifdOffset))...)

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "raster: create %s", path)
	}
	if _, err := f.Write(file); err != nil {
		f.Close()
		return eris.Wrapf(err, "raster: write %s", path)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return eris.Wrapf(err, "raster: flush %s", path)
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "raster: close %s", path)
	}
	return nil
}

func allZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// tiffWriter accumulates little-endian IFD entries plus an out-of-line
// value area. Tags must be added in ascending tag order.
type tiffWriter struct {
	ifd   []byte // 12-byte entries
	extra []byte // values that do not fit inline
	fixup []int  // offsets within ifd of extra-area pointers to relocate
}

func (w *tiffWriter) entry(tag, typ uint16, count uint32) {
	w.ifd = binary.LittleEndian.AppendUint16(w.ifd, tag)
	w.ifd = binary.LittleEndian.AppendUint16(w.ifd, typ)
	w.ifd = binary.LittleEndian.AppendUint32(w.ifd, count)
}

func (w *tiffWriter) tagShort(tag uint16, v uint32) {
	w.entry(tag, typeShort, 1)
	w.ifd = binary.LittleEndian.AppendUint16(w.ifd, uint16(v))
	w.ifd = append(w.ifd, 0, 0)
}

func (w *tiffWriter) tagValues(tag, typ uint16, vals []uint32) {
	w.entry(tag, typ, uint32(len(vals)))
	size := typeSize[typ]
	if size*len(vals) <= 4 {
		var inline [4]byte
		for i, v := range vals {
			if typ == typeShort {
				binary.LittleEndian.PutUint16(inline[i*2:], uint16(v))
			} else {
				binary.LittleEndian.PutUint32(inline[i*4:], v)
			}
		}
		w.ifd = append(w.ifd, inline[:]...)
		return
	}
	w.pointExtra()
	for _, v := range vals {
		if typ == typeShort {
			w.extra = binary.LittleEndian.AppendUint16(w.extra, uint16(v))
		} else {
			w.extra = binary.LittleEndian.AppendUint32(w.extra, v)
		}
	}
	w.padExtra()
}

func (w *tiffWriter) tagDoubles(tag uint16, vals []float64) {
	w.entry(tag, typeDouble, uint32(len(vals)))
	w.pointExtra()
	for _, v := range vals {
		w.extra = binary.LittleEndian.AppendUint64(w.extra, math.Float64bits(v))
	}
}

// pointExtra records the current IFD value slot as a pointer into the
// extra area, resolved in render once the IFD's final position is known.
func (w *tiffWriter) pointExtra() {
	w.fixup = append(w.fixup, len(w.ifd))
	w.ifd = binary.LittleEndian.AppendUint32(w.ifd, uint32(len(w.extra)))
}

func (w *tiffWriter) padExtra() {
	if len(w.extra)%2 != 0 {
		w.extra = append(w.extra, 0)
	}
}

// render emits count + entries + next-IFD terminator + extra area, with
// extra-area pointers rebased against ifdOffset.
func (w *tiffWriter) render(ifdOffset uint32) []byte {
	n := len(w.ifd) / 12
	extraBase := ifdOffset + 2 + uint32(len(w.ifd)) + 4
	for _, at := range w.fixup {
		rel := binary.LittleEndian.Uint32(w.ifd[at : at+4])
		binary.LittleEndian.PutUint32(w.ifd[at:at+4], extraBase+rel)
	}
	out := binary.LittleEndian.AppendUint16(nil, uint16(n))
	out = append(out, w.ifd...)
	out = append(out, 0, 0, 0, 0)
	out = append(out, w.extra...)
	return out
}
