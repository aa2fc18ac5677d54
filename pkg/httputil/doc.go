// Package httputil fetches garden schemas over HTTP.
//
// [Fetch] downloads one schema document, retrying transient failures
// (network errors, 5xx and 429 responses) with [Retry], and reports the
// document format from the Content-Type header or the URL extension:
//
//	doc, err := httputil.Fetch(ctx, nil, "https://example.com/omni.yaml", httputil.Options{})
//	if err != nil {
//	    return err
//	}
//	g, err := garden.Decode(bytes.NewReader(doc.Data), garden.Format(doc.Format))
package httputil
