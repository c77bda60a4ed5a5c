// Command audioclient sends a local WAV file through the voice pipeline of a
// running service instance. Useful as a smoke test without a browser client.
package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

func main() {
	audioFile := flag.String("audio", "testdata/sample-16khz.wav", "Path to WAV file")
	serverAddr := flag.String("server", "http://localhost:8080", "HTTP API base URL")
	conversationID := flag.String("conversation", "smoke-"+time.Now().Format("150405"), "Conversation ID")
	userID := flag.String("user", "smoke-test", "User ID")
	flag.Parse()

	f, err := os.Open(*audioFile)
	if err != nil {
		log.Fatalf("Failed to open audio file: %v", err)
	}
	defer f.Close()

	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		log.Fatalf("Failed to read WAV header: %v", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		log.Fatal("Not a valid WAV file")
	}

	numChannels := binary.LittleEndian.Uint16(header[22:24])
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	bitsPerSample := binary.LittleEndian.Uint16(header[34:36])
	log.Printf("WAV file: channels=%d sampleRate=%d bitsPerSample=%d", numChannels, sampleRate, bitsPerSample)

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		log.Fatalf("Failed to rewind file: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("audio", "sample.wav")
	if err != nil {
		log.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := io.Copy(fw, f); err != nil {
		log.Fatalf("Failed to copy audio: %v", err)
	}
	mw.WriteField("conversationId", *conversationID)
	mw.WriteField("userId", *userID)
	mw.Close()

	req, err := http.NewRequest(http.MethodPost, *serverAddr+"/v1/chat/send-audio", &body)
	if err != nil {
		log.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	log.Printf("Status: %s", resp.Status)

	var pretty bytes.Buffer
	raw, _ := io.ReadAll(resp.Body)
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(pretty.String())
}
