// Command soundtrace is the CLI front-end for the fingerprinting engine:
// ingest tracks, recognize clips, and inspect or serve the index.
//
// Grounded on algorithm/main.go's -mode add|query|compact flag set,
// restructured as a Cobra command tree per
// RyanBlaney-latency-benchmark/cmd/root.go's Viper-backed flag binding.
package main

func main() {
	Execute()
}
