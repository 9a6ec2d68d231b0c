package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	"main/internal/schema"
	"main/internal/ticklog"
)

func main() {
	max := flag.Int("max", 0, "Maximum records to print per file (0=all)")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatalf("usage: tickdump [-max n] <file.tikx> ...")
	}
	for _, path := range flag.Args() {
		if err := dump(path, *max); err != nil {
			log.Fatalf("%s: %v", path, err)
		}
	}
}

func dump(path string, max int) error {
	reader, err := ticklog.OpenReader(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	header := reader.Header()
	fmt.Printf("%s version=%s created=%s description=%q\n",
		path, header.Version,
		time.Unix(0, header.CreatedNs).UTC().Format(time.RFC3339Nano),
		header.Description)

	count := 0
	for max == 0 || count < max {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		printEvent(ev)
		count++
	}
	fmt.Printf("%d records\n", count)
	return nil
}

func printEvent(ev schema.Event) {
	switch ev.Kind {
	case schema.EventMarketData:
		tick, err := ev.Tick()
		if err != nil {
			return
		}
		fmt.Printf("  %d %-6s %-5s px=%s qty=%d\n",
			tick.TsNs, tick.Symbol, tick.Kind, tick.Price.Decimal(), tick.Qty)
	case schema.EventQuote:
		quote, err := ev.Quote()
		if err != nil {
			return
		}
		fmt.Printf("  %d %-6s quote bid=%s/%d ask=%s/%d\n",
			quote.TsNs, quote.Symbol,
			quote.BidPx.Decimal(), quote.BidSz,
			quote.AskPx.Decimal(), quote.AskSz)
	}
}
