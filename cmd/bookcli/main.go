package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openvenue/matchd/pkg/server"
)

var (
	serverAddr = flag.String("addr", "http://localhost:8080", "Base URL of the matchd server")
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

// Response shapes are decoded locally with string decimals so the CLI
// needs no decimal parsing beyond display formatting.
type tradeLeg struct {
	OrderID  string `json:"orderID"`
	Quantity string `json:"quantity"`
}

type trade struct {
	Bid tradeLeg `json:"bid"`
	Ask tradeLeg `json:"ask"`
}

type tradesResponse struct {
	Trades []trade `json:"trades"`
	Size   int     `json:"size"`
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	os.Args = append(os.Args[:1], os.Args[2:]...)
	flag.Parse()
	args := flag.Args()

	switch command {
	case "add":
		addOrder(args)
	case "cancel":
		cancelOrder(args)
	case "cancel-bulk":
		cancelBulk(args)
	case "modify":
		modifyOrder(args)
	case "book":
		if err := printBook(); err != nil {
			log.Fatal().Err(err).Msg("Failed to fetch book")
		}
	case "size":
		var view server.BookView
		if err := doRequest(http.MethodGet, "/book", nil, &view); err != nil {
			log.Fatal().Err(err).Msg("Failed to fetch book")
		}
		fmt.Println(view.Size)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: bookcli [flags] <command> [args]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  add <id> <BUY|SELL> <GTC|GFD|FAK|FOK|MARKET> <quantity> [price]")
	fmt.Println("  cancel <id>")
	fmt.Println("  cancel-bulk <id> [id ...]")
	fmt.Println("  modify <id> <BUY|SELL> <price> <quantity>")
	fmt.Println("  book")
	fmt.Println("  size")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}

func addOrder(args []string) {
	if len(args) < 4 {
		fmt.Println("Usage: add <id> <BUY|SELL> <GTC|GFD|FAK|FOK|MARKET> <quantity> [price]")
		os.Exit(1)
	}

	req := server.OrderRequest{
		ID:       args[0],
		Side:     args[1],
		Type:     args[2],
		Quantity: args[3],
	}
	if len(args) > 4 {
		req.Price = args[4]
	}

	var resp tradesResponse
	if err := doRequest(http.MethodPost, "/orders", req, &resp); err != nil {
		log.Fatal().Err(err).Msg("Failed to submit order")
	}

	log.Info().
		Str("order_id", req.ID).
		Int("trades", len(resp.Trades)).
		Int("book_size", resp.Size).
		Msg("Order submitted")

	for _, execution := range resp.Trades {
		log.Info().
			Str("bid", execution.Bid.OrderID).
			Str("ask", execution.Ask.OrderID).
			Str("quantity", execution.Bid.Quantity).
			Msg("Trade executed")
	}
}

func cancelOrder(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: cancel <id>")
		os.Exit(1)
	}

	if err := doRequest(http.MethodDelete, "/orders/"+args[0], nil, nil); err != nil {
		log.Fatal().Err(err).Msg("Failed to cancel order")
	}
	log.Info().Str("order_id", args[0]).Msg("Order canceled")
}

func cancelBulk(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: cancel-bulk <id> [id ...]")
		os.Exit(1)
	}

	if err := doRequest(http.MethodPost, "/orders/cancel", server.CancelBulkRequest{IDs: args}, nil); err != nil {
		log.Fatal().Err(err).Msg("Failed to cancel orders")
	}
	log.Info().Int("count", len(args)).Msg("Orders canceled")
}

func modifyOrder(args []string) {
	if len(args) < 4 {
		fmt.Println("Usage: modify <id> <BUY|SELL> <price> <quantity>")
		os.Exit(1)
	}

	req := server.ModifyRequest{
		Side:     args[1],
		Price:    args[2],
		Quantity: args[3],
	}

	var resp tradesResponse
	if err := doRequest(http.MethodPut, "/orders/"+args[0], req, &resp); err != nil {
		log.Fatal().Err(err).Msg("Failed to modify order")
	}

	log.Info().
		Str("order_id", args[0]).
		Int("trades", len(resp.Trades)).
		Msg("Order modified")
}

func printBook() error {
	var view server.BookView
	if err := doRequest(http.MethodGet, "/book", nil, &view); err != nil {
		return err
	}

	color.NoColor = false
	cyan := color.New(color.FgCyan).SprintfFunc()
	red := color.New(color.FgRed).SprintfFunc()
	green := color.New(color.FgGreen).SprintfFunc()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)

	fmt.Fprintf(w, "%15s|%15s|%s\n", cyan("Price"), cyan("Quantity"), cyan("Side"))
	fmt.Fprintf(w, "%15s|%15s|%s\n", "---------------", "---------------", "----")

	// Asks print worst first so the spread sits in the middle.
	for i := len(view.Asks) - 1; i >= 0; i-- {
		level := view.Asks[i]
		fmt.Fprintf(w, "%15.3f|%15.3f|%s\n",
			parseFloat(level.Price), parseFloat(level.Quantity), red("ASK"))
	}

	fmt.Fprintf(w, "%15s|%15s|%s\n", "---------------", "---------------", "----")

	for _, level := range view.Bids {
		fmt.Fprintf(w, "%15.3f|%15.3f|%s\n",
			parseFloat(level.Price), parseFloat(level.Quantity), green("BID"))
	}

	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nResting orders: %d\n", view.Size)
	return nil
}

func doRequest(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, *serverAddr+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
