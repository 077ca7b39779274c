// Command fingerlink streams webcam finger states to a microcontroller over
// a serial link.
package main

func main() {
	Execute()
}
