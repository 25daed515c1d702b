// Command outline synthesizes heading hierarchies in pdftohtml output from
// the command line.
package main

func main() {
	Execute()
}
