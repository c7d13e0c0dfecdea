package main

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
)

// Standalone sink for manual testing of the security webhook:
//
//	SECURITY_WEBHOOK_URL=http://localhost:9090 go run webhook_receiver.go
func main() {
	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Only POST method is accepted", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Error reading request body", http.StatusInternalServerError)
			return
		}
		defer r.Body.Close()

		var data map[string]interface{}
		if err := json.Unmarshal(body, &data); err != nil {
			http.Error(w, "Error parsing JSON", http.StatusBadRequest)
			return
		}

		log.Println("Received security event:")
		log.Printf("  Event: %s", data["event"])
		log.Printf("  Username: %s", data["username"])
		log.Printf("  Role: %s", data["role"])
		log.Printf("  Client IP: %s", data["client_ip"])
		log.Printf("  Time: %s", data["time"])

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Event received!"))
	})

	log.Println("Listening on :9090")
	log.Fatal(http.ListenAndServe(":9090", nil))
}
