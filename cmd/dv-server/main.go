package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	dvrpc "dhashvault/pkg/api/dvrpc/v1"
	"dhashvault/pkg/app"
	"dhashvault/pkg/config"
	"dhashvault/pkg/server"
	"dhashvault/pkg/service"

	"github.com/spf13/viper"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Config
	cfgFile := flag.String("config", "", "config file (default is ./.dv/config.yaml or $HOME/.dv/config.yaml)")
	addrFlag := flag.String("addr", "", "listen address (overrides server.addr)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	if err := config.Load(*cfgFile); err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}
	addr := viper.GetString("server.addr")
	if *addrFlag != "" {
		addr = *addrFlag
	}

	// 2. Init Core Application
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp(ctx)
	if err != nil {
		log.Fatalf("❌ Failed to initialize app: %v", err)
	}
	defer application.Close()
	fmt.Println("✅ dhashvault core initialized.")

	// 3. Setup Network
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatalf("❌ Failed to listen on %s: %v", addr, err)
	}

	// 4. Setup gRPC Server
	grpcServer := server.NewGRPCServer()

	hashSvc := service.NewHashService(application.Repo, application.Hasher.Size())
	dvrpc.RegisterHashServiceServer(grpcServer, hashSvc)

	healthSvc := health.NewServer()
	healthSvc.SetServingStatus(dvrpc.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(grpcServer, healthSvc)

	// Enable Reflection for debugging tools (grpcurl)
	reflection.Register(grpcServer)

	// 5. Start Server (Async)
	go func() {
		fmt.Printf("🚀 gRPC Server listening on %s...\n", addr)
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("serve failed", "error", err)
			stop()
		}
	}()

	// 6. Graceful Shutdown
	<-ctx.Done()

	fmt.Println("\n⚠️  Shutting down server...")
	healthSvc.Shutdown()
	grpcServer.GracefulStop()
	fmt.Println("👋 Server stopped.")
}
