// Package server exposes the segmentation pipeline to MCP (Model Context
// Protocol) clients.
//
// Requests arrive as newline-delimited JSON-RPC 2.0 messages on the reader
// passed to Serve; each response is written as a single line. The methods
// understood are initialize, tools/list, tools/call and ping.
//
// # Tools
//
// Image metadata:
//   - image_load: format, size, bit depth and alpha of an image file
//   - image_dimensions: width and height only
//
// Segmentation:
//   - image_threshold: the Otsu threshold the pipeline would use
//   - image_segment: object polygons as WKT plus run statistics; with
//     "output" set, the polygons are also appended to a JSON lines file
//     below the directory given to SetOutputDir
//   - image_segment_overlay: a PNG preview with each polygon outlined
//
// Every segmentation tool takes the pipeline parameters as optional
// snake_case arguments (kernel_size, morph_op, border_mode and so on).
// Missing arguments keep the defaults given to NewWithConfig.
//
// Decoded images stay in an in-memory cache keyed by path until the process
// exits, so tuning parameters on one image decodes it once.
//
// # Errors
//
// A failing tool yields a JSON-RPC error with code -32000 and the Go error in
// data. Malformed tools/call params yield -32602. Diagnostics go to the
// server's zerolog logger, never to the protocol stream.
//
// # Usage
//
//	log := logging.New(os.Stderr, zerolog.InfoLevel, false)
//	srv := server.NewWithConfig(config.DefaultConfig().Segmentation, log)
//	if err := srv.Run(); err != nil {
//	    log.Fatal().Err(err).Msg("server error")
//	}
package server
