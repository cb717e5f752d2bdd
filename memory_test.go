package sagesearch_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/flight"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/hugr-lab/sagesearch"
	sflight "github.com/hugr-lab/sagesearch/flight"
)

// TestMemoryLeaks uses memory.NewCheckedAllocator to detect memory leaks.
// This test ensures that all Arrow objects built while serving searches
// and catalog listings are released.
func TestMemoryLeaks(t *testing.T) {
	allocator := memory.NewCheckedAllocator(memory.DefaultAllocator)

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to create listener: %v", err)
	}
	config := sagesearch.ServerConfig{
		Catalog:   modelCatalog(t),
		Allocator: allocator,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	grpcServer := grpc.NewServer(sagesearch.ServerOptions(config)...)
	srv, err := sagesearch.NewServer(grpcServer, config)
	if err != nil {
		t.Fatal(err)
	}
	defer srv.Close()
	go grpcServer.Serve(lis)

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatal(err)
	}
	client := flight.NewFlightServiceClient(conn)
	ctx := context.Background()

	t.Run("DoGet", func(t *testing.T) {
		for _, cmd := range []string{
			`{"Resource":"TrainingJob"}`,
			`{"Resource":"TrainingJob","MaxResults":1}`,
			`{"Resource":"TrainingJob","SearchExpression":{"Filters":[{"Name":"TrainingJobStatus","Value":"InProgress"}]}}`,
		} {
			if _, err := doGet(t, ctx, client, cmd); err != nil {
				t.Fatalf("search %s failed: %v", cmd, err)
			}
		}
	})

	t.Run("ListResourceTypes", func(t *testing.T) {
		stream, err := client.DoAction(ctx, &flight.Action{Type: sflight.ActionListResourceTypes})
		if err != nil {
			t.Fatal(err)
		}
		for {
			if _, err := stream.Recv(); err != nil {
				if err != io.EOF {
					t.Fatalf("Recv() failed: %v", err)
				}
				break
			}
		}
	})

	conn.Close()
	// GracefulStop waits for handlers, so every server-side release has run.
	grpcServer.GracefulStop()
	allocator.AssertSize(t, 0)
}
