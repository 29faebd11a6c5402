package histogram

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteTo writes the histogram as tab separated value/count rows sorted by
// value, preceded by two comment lines.
func (h *Histogram) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	write := func(format string, args ...any) error {
		m, err := fmt.Fprintf(bw, format, args...)
		n += int64(m)
		return err
	}
	if err := write("# %s (bin size: %d)\n", h.title, h.binWidth); err != nil {
		return n, err
	}
	if err := write("# Value\tCount\n"); err != nil {
		return n, err
	}
	for _, b := range h.Sorted() {
		if err := write("%d\t%d\n", b.Value, b.Count); err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// Parse reads the format produced by WriteTo. Comment lines and rows that
// are not two integers are skipped. The bin size is taken from the title
// comment when present, 1 otherwise.
func Parse(r io.Reader) (*Histogram, error) {
	h := newHistogram(1)
	sc := bufio.NewScanner(r)
	first := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "#") {
			if first && !strings.HasPrefix(line, "# Value") {
				parseTitle(h, line)
			}
			first = false
			continue
		}
		first = false
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		v, err1 := strconv.Atoi(fields[0])
		c, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil || c < 0 {
			continue
		}
		h.add(v, c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return h, nil
}

func parseTitle(h *Histogram, line string) {
	title := strings.TrimSpace(strings.TrimPrefix(line, "#"))
	const marker = "(bin size: "
	i := strings.LastIndex(title, marker)
	if i < 0 {
		h.title = title
		return
	}
	rest := strings.TrimSuffix(title[i+len(marker):], ")")
	if w, err := strconv.Atoi(strings.TrimSpace(rest)); err == nil && w > 0 {
		h.binWidth = w
	}
	h.title = strings.TrimSpace(title[:i])
}
