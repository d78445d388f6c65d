// Command kvs-client is a blocking CLI client for kvs-server, issuing one
// GET, SET, or RM request per invocation per spec §6.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/iamNilotpal/ignitedb/internal/client"
	"github.com/iamNilotpal/ignitedb/pkg/options"
)

func main() {
	addr := flag.String("addr", options.DefaultAddr, "TCP address of the kvs-server to connect to")
	timeout := flag.Duration("timeout", 5*time.Second, "round-trip timeout")
	flag.Parse()

	args := flag.Args()
	if len(args) < 2 {
		usage()
		os.Exit(1)
	}

	c := client.New(*addr, *timeout)
	op, key := args[0], args[1]

	var err error
	switch op {
	case "get":
		var value string
		value, err = c.Get(key)
		if err == nil {
			fmt.Println(value)
		}
	case "set":
		if len(args) < 3 {
			usage()
			os.Exit(1)
		}
		err = c.Set(key, args[2])
	case "rm":
		err = c.Remove(key)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		if errors.Is(err, client.ErrKeyNotFound) {
			if op == "get" {
				fmt.Println("Key not found")
				os.Exit(0)
			}
			fmt.Fprintln(os.Stderr, "Key not found")
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: kvs-client [-addr HOST:PORT] get KEY | set KEY VALUE | rm KEY")
}
