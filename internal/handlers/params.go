package handlers

import "net/http"

// getParam returns a path parameter captured by pat, which stores it in the
// query as ":name".
func getParam(r *http.Request, name string) string {
	return r.URL.Query().Get(":" + name)
}
