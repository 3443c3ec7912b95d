// internal/workers/deployment/verify-pages/models.go
package verifypages

type Input struct {
	PagesURL string
	Nonce    string
}

type Output struct {
	PagesURL string
	Attempts int
}
