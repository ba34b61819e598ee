// Command webtoonqa answers questions about a webtoon from the terminal,
// loads ingested scenes into the vector store and runs the API server.
package main

func main() {
	Execute()
}
