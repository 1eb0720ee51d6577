package urls

// Upstream WLED documentation (https://kno.wled.ge)

// JSONAPI documents /cfg.json, /presets.json and the JSON state format
const JSONAPI = "https://kno.wled.ge/interfaces/json-api/"

// WebSocket documents the /ws endpoint that pushes device state
const WebSocket = "https://kno.wled.ge/interfaces/websocket/"
