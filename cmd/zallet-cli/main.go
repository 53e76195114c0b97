// zallet-cli sends JSON-RPC requests to a running zalletd.
//
// Usage:
//
//	zallet-cli [--rpc URL] <method> [params...]
//
// Each param that parses as JSON is sent as that value; anything else is sent
// as a string.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	flags "github.com/jessevdk/go-flags"

	"github.com/zecrocks/zallet-go/internal/rpcclient"
)

type options struct {
	RPC     string `long:"rpc" default:"http://127.0.0.1:28232" description:"RPC endpoint"`
	Timeout int    `long:"timeout" default:"30" description:"Request timeout in seconds"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[OPTIONS] <method> [params...]"
	args, err := parser.Parse()
	if err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if len(args) == 0 {
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}

	client := rpcclient.NewWithTimeout(opts.RPC, time.Duration(opts.Timeout)*time.Second)
	var result json.RawMessage
	if err := client.Call(args[0], rpcclient.ParseArgs(args[1:]), &result); err != nil {
		fatal("%s: %v", args[0], err)
	}
	printResult(result)
}

func printResult(result json.RawMessage) {
	if len(result) == 0 {
		return
	}
	// Bare strings (operation ids, addresses) print without quotes.
	var s string
	if json.Unmarshal(result, &s) == nil {
		fmt.Println(s)
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, result, "", "  "); err != nil {
		fmt.Println(string(result))
		return
	}
	fmt.Println(buf.String())
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
