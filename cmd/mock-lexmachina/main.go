package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/lexmachina/suggested-searches-agent/internal/mocklexmachina"
)

func main() {
	addr := defaultString("MOCK_LEXMACHINA_ADDR", ":8080")

	srv := mocklexmachina.New()

	fs := flag.NewFlagSet("mock-lexmachina", flag.ExitOnError)
	fs.StringVar(&addr, "addr", addr, "Listen address")
	token := fs.String("token", "", "Bearer token to require on API requests (empty disables)")
	clientID := fs.String("client-id", "", "OAuth2 client id accepted by the token endpoint")
	clientSecret := fs.String("client-secret", "", "OAuth2 client secret accepted by the token endpoint")
	accessToken := fs.String("access-token", "mock-access-token", "Access token issued by the token endpoint")
	fs.Func("suggest", "Canned suggestions, repeatable: \"query=/desc/1,/desc/2\"", func(v string) error {
		query, urls, ok := strings.Cut(v, "=")
		if !ok {
			return fmt.Errorf("expected query=url[,url...], got %q", v)
		}
		srv.SetSuggestionURLs(query, splitCSV(urls)...)
		return nil
	})
	_ = fs.Parse(os.Args[1:])

	srv.RequireBearerToken(*token)
	srv.SetClientCredentials(*clientID, *clientSecret, *accessToken)

	_, _ = fmt.Fprintf(os.Stdout, "mock-lexmachina listening on %s\n", addr)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		v := strings.TrimSpace(p)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

func defaultString(envVar string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(envVar))
	if v == "" {
		return fallback
	}
	return v
}
