// Stamp - CloudTrail-driven resource ownership tagger
// Create. Stamp. Done.
package main

func main() {
	Execute()
}
