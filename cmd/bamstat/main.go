// Command bamstat is a thin consumer of the bam package: it prints a
// BAM file's reference table, then either counts every record of the
// file or, given -region, prints and counts the records of that region.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/6br/bam/bam"
)

func main() {
	var (
		baiPath  = flag.String("bai", "", "path to the BAI index (defaults to <bam>.bai)")
		region   = flag.String("region", "", "reference:start-end region to fetch (1-based, inclusive)")
		cacheCap = flag.Int("cache", 1000, "decompressed block cache capacity")
		checkCRC = flag.Bool("crc", false, "verify BGZF block CRC32 checksums")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: bamstat [flags] <bam-file>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	if *region == "" {
		if err := dumpAll(path, *checkCRC); err != nil {
			log.Fatal(err)
		}
		return
	}

	refName, start, end, err := parseRegion(*region)
	if err != nil {
		log.Fatal(err)
	}
	if err := dumpRegion(path, *baiPath, refName, start, end, *cacheCap, *checkCRC); err != nil {
		log.Fatal(err)
	}
}

func dumpAll(path string, checkCRC bool) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := bam.NewReader(f, checkCRC)
	if err != nil {
		return err
	}
	defer r.Close()

	printHeader(r.Header())

	var n int
	for {
		_, err := r.Read()
		if errors.Is(err, bam.NoMoreRecords) {
			break
		}
		if err != nil {
			return err
		}
		n++
	}
	fmt.Printf("records: %d\n", n)
	return nil
}

func dumpRegion(path, baiPath, refName string, start, end, cacheCap int, checkCRC bool) error {
	ir, err := bam.NewBuilder().
		BAIPath(baiPath).
		CacheCapacity(cacheCap).
		CheckCRC(checkCRC).
		Open(path)
	if err != nil {
		return err
	}
	defer ir.Close()

	printHeader(ir.Header())

	v, err := ir.FetchByName(refName, start, end)
	if err != nil {
		return err
	}

	var n int
	for {
		rec, err := v.Read()
		if errors.Is(err, bam.NoMoreRecords) {
			break
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s:%d\tmapq=%d\tcigar=%v\n", rec.Name, refName, rec.Pos+1, rec.MapQ, rec.Cigar)
		n++
	}
	fmt.Printf("records in region: %d\n", n)
	return nil
}

func printHeader(h *bam.Header) {
	fmt.Printf("references: %d\n", h.NRefs())
	for i := 0; i < h.NRefs(); i++ {
		ref := h.Reference(i)
		fmt.Printf("  %d\t%s\t%d\n", i, ref.Name(), ref.Len())
	}
}

func parseRegion(s string) (refName string, start, end int, err error) {
	colon := -1
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ':' {
			colon = i
			break
		}
	}
	if colon < 0 {
		return "", 0, 0, fmt.Errorf("bamstat: region %q must be ref:start-end", s)
	}
	refName = s[:colon]

	var dash int = -1
	for i, c := range s[colon+1:] {
		if c == '-' {
			dash = colon + 1 + i
			break
		}
	}
	if dash < 0 {
		return "", 0, 0, fmt.Errorf("bamstat: region %q must be ref:start-end", s)
	}

	if _, err := fmt.Sscanf(s[colon+1:dash], "%d", &start); err != nil {
		return "", 0, 0, fmt.Errorf("bamstat: invalid region start: %w", err)
	}
	if _, err := fmt.Sscanf(s[dash+1:], "%d", &end); err != nil {
		return "", 0, 0, fmt.Errorf("bamstat: invalid region end: %w", err)
	}
	return refName, start - 1, end, nil
}
