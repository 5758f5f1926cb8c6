package main

import "github.com/hanamahes78/sshsift/internal/daemon"

func main() {
	daemon.Main()
}
