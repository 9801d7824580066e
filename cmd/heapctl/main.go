// Command heapctl replays allocation traces against the heapkit allocator
// and inspects persistent heap images.
package main

func main() {
	execute()
}
