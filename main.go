package main

import "github.com/jmehdipour/botd-saas/cmd"

func main() {
	cmd.Execute()
}
