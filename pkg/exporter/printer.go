package exporter

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"dhashvault/pkg/core"
	"dhashvault/pkg/dhash"
	"dhashvault/pkg/meta"
)

// PrintStructure 解析并打印 Record
// 如果数据不是 Record，返回 false，由调用者决定如何展示
func PrintStructure(data []byte, w io.Writer) (bool, error) {
	// 1. 尝试探测类型
	var header struct {
		TypeVal core.ObjectType `cbor:"t"`
	}
	if err := core.DecodeObject(data, &header); err != nil {
		return false, nil
	}

	// 2. 分发打印
	switch header.TypeVal {
	case core.TypeRecord:
		rec, err := core.DecodeRecord(data)
		if err != nil {
			return true, err
		}
		return true, printRecord(rec, w)
	default:
		return false, nil
	}
}

func printRecord(r *core.Record, w io.Writer) error {
	fmt.Fprintf(w, "Type:    Record\n")
	fmt.Fprintf(w, "ID:      %s\n", r.ID())
	fmt.Fprintf(w, "Content: %s\n", r.Content)
	fmt.Fprintf(w, "Grid:    %dx%d (%d bits)\n", r.Size+1, r.Size, r.Size*r.Size)
	fmt.Fprintf(w, "Image:   %s %dx%d\n", r.Format, r.Width, r.Height)
	fmt.Fprintf(w, "dHash:   %s\n", r.Hex())
	fmt.Fprintf(w, "pHash:   %016x\n", r.PHash)
	fmt.Fprintf(w, "Binary:  %s\n", r.Binary)
	return nil
}

// PrintHash 打印单个文件的哈希，hex 为 true 时输出十六进制形式
func PrintHash(h *dhash.Hash, hex bool, w io.Writer) {
	value := h.Binary()
	if hex {
		value = h.Hex()
	}
	if h.Source() == "" {
		fmt.Fprintln(w, value)
		return
	}
	fmt.Fprintf(w, "%s  %s\n", value, h.Source())
}

// PrintPaths 打印指向同一内容的路径列表
func PrintPaths(paths []meta.PathModel, w io.Writer) {
	if len(paths) == 0 {
		fmt.Fprintf(w, "\n(no known paths)\n")
		return
	}
	fmt.Fprintf(w, "\n")
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "SIZE\tMODIFIED\tPATH\n")
	for _, p := range paths {
		mod := time.Unix(0, p.ModTime).Format(time.RFC3339)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", fmtSize(p.SizeBytes), mod, p.Path)
	}
	tw.Flush()
}

// PrintMatches 以表格形式打印相似度查询结果
func PrintMatches(matches []meta.Match, w io.Writer) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "No similar images found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "DIST\tRECORD\tHEX\tPATHS\n")
	for _, m := range matches {
		paths := "-"
		if len(m.Paths) > 0 {
			paths = strings.Join(m.Paths, ", ")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", m.Distance, m.RecordID.Short(), m.Hex, paths)
	}
	tw.Flush()
}

func fmtSize(s int64) string {
	if s < 1024 {
		return fmt.Sprintf("%dB", s)
	} else if s < 1024*1024 {
		return fmt.Sprintf("%.1fKB", float64(s)/1024)
	}
	return fmt.Sprintf("%.2fMB", float64(s)/1024/1024)
}
