package main

import "github.com/hanamahes78/sshsift/internal/cli"

func main() {
	cli.Main()
}
