package main

import (
	"context"
	"fmt"
	"os"

	"github.com/anonpay/paylink-agent/internal/infra/mesh"
)

func main() {
	gatewayURL := os.Getenv("MESH_GATEWAY_URL")
	agentKey := os.Getenv("MESH_AGENT_KEY")

	if gatewayURL == "" || agentKey == "" {
		fmt.Println("Error: MESH_GATEWAY_URL and MESH_AGENT_KEY must be set")
		os.Exit(1)
	}

	if len(os.Args) < 3 {
		fmt.Println("Usage: send-dm <conv_id> <message>")
		os.Exit(1)
	}

	convID := os.Args[1]
	message := os.Args[2]

	ctx := context.Background()
	client := mesh.NewClient(gatewayURL, agentKey)
	if err := client.Connect(ctx); err != nil {
		fmt.Printf("Error: failed to connect: %v\n", err)
		os.Exit(1)
	}

	if err := client.SendText(ctx, convID, message); err != nil {
		fmt.Printf("Error: failed to send: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Message sent to %s\n", convID)
}
