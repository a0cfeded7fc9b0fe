// Package obfuscate implements the core functionality of xmask.
//
// Obfuscate scrambles the selected areas of an image into blocks, paints over the areas and appends
// the blocks and a colour byte code to the edge of the output. Reveal reads the code back and restores
// the areas, even if the obfuscated image has been resized since.
//
//	out, err := obfuscate.Obfuscate(img, []geometry.Rect{geometry.R(10, 10, 64, 32)}, obfuscate.DefaultOptions())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	revealed, err := obfuscate.Reveal(out, "")
//
// For batch processing, the Engine type runs the tasks on a pool of workers.
// Every engine is connected to a stream of work units from which it receives the requests.
// In order to flow the work units into the associated stream, you need to implement a Tap and
// connect it to the engine by passing it to obfuscate.NewEngine(...) method.
//
//	tap, err := taps.YourImplementationOfTap(...)
//
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	engine := obfuscate.NewEngine(workers, false, tap, logger)
//
// Once you initialised the engine, you need to start it:
//
//	engine.Start()
//
//	signals := make(chan os.Signal)
//	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
//	<-signals
//
//	engine.Stop()
package obfuscate
