// Package fetch retrieves HTML documents over HTTP for analysis.
//
// A Client issues a single GET per document and accepts only "200 OK".
// Any other status, and any transport failure, is returned as a *FetchError.
// Bodies are size-limited and decoded to UTF-8 using the charset declared
// by the server or the document.
//
// Requests can be routed through a SOCKS5 proxy (for example a local Tor
// daemon) with WithProxy, or through an embedded Tor daemon started with
// EmbeddedTor, which is required for .onion addresses.
//
// # Usage
//
//	client, err := fetch.NewClient(fetch.WithTimeout(30 * time.Second))
//	if err != nil {
//		return err
//	}
//	doc, err := client.Fetch(ctx, "http://example.com")
package fetch
