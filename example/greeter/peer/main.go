package main

import (
	"xccproxy/identity"
	"xccproxy/peer"
	"xccproxy/rpc"
	"xccproxy/rpc/compress/snappy"
	"xccproxy/rpc/serialize/proto"

	"github.com/rs/zerolog/log"
)

func main() {
	svr := rpc.NewServer(rpc.ServerWithAccount(identity.AccountID("127.0.0.1:8081")))
	svr.MustRegister(peer.NewGreeter())
	svr.RegisterSerializer(proto.Serializer{})
	svr.RegisterCompressor(snappy.Compressor{})
	if err := svr.Start("127.0.0.1:8081"); err != nil {
		log.Fatal().Err(err).Msg("greeter stopped")
	}
}
