// Package wled provides a read-only client for the local API of WLED
// lighting controllers.
//
// Three artifacts can be retrieved from a device:
//   - cfg: GET /cfg.json, the full device configuration. The document must
//     carry a non-blank id.name, which is how WLED reports its own name.
//   - presets: GET /presets.json, the stored presets and playlists.
//   - state: the JSON state document WLED pushes to every client that opens
//     the /ws websocket.
//
// The client never issues a request that changes device settings.
//
// # Usage Example
//
//	client := wled.NewClient("192.168.1.42", 80)
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//
//	cfg, err := client.Fetch(ctx, wled.ArtifactConfig)
//	if err != nil {
//	    fmt.Println(wled.GetShortErrorMessage(err))
//	    return
//	}
//
// # Error Handling
//
// All failures are returned as *FetchError, classified by ErrorType:
//
//	if wled.IsTimeout(err) {
//	    // device did not answer before the deadline
//	}
package wled
