package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
	anchorGrpc "liyu1981.xyz/iot-anchor-service/pkg/grpc"
)

var maxDevices int = 1000
var readingsPerDevice int = 5
var brokerURL string = "tcp://127.0.0.1:1883"
var topicRoot string = "sensors"
var httpHostPort string = "127.0.0.1:1080"
var grpcHostPort string = "127.0.0.1:10801"

var mqttClient mqtt.Client
var grpcClient anchorGrpc.AnchorServiceClient

var rnd *rand.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
var rndMu sync.Mutex

var failures atomic.Int64

func main() {
	chipIDs := make([]string, maxDevices)
	for i := 0; i < maxDevices; i++ {
		chipIDs[i] = uuid.NewString()[:8]
	}
	fmt.Printf("generated %v chip IDs\n", maxDevices)

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", httpHostPort))
	if err != nil {
		log.Fatal("Failed to connect to HTTP server:", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatal("HTTP server not available")
	}

	fmt.Printf("http server verified\n")

	conn, err := grpc.NewClient(grpcHostPort, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal("Failed to connect to gRPC server:", err)
	}
	defer conn.Close()
	grpcClient = anchorGrpc.NewAnchorServiceClient(conn)

	fmt.Printf("gRPC client created\n")

	opts := mqtt.NewClientOptions().AddBroker(brokerURL).SetClientID("device1k-" + uuid.NewString()[:8])
	mqttClient = mqtt.NewClient(opts)
	if token := mqttClient.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal("Failed to connect to MQTT broker:", token.Error())
	}
	defer mqttClient.Disconnect(250)

	fmt.Printf("mqtt broker connected\n")

	var startTime time.Time
	var usedTime time.Duration

	startTime = time.Now()
	wg := sync.WaitGroup{}
	for i := 0; i < maxDevices; i++ {
		i := i
		wg.Add(1)
		go func() {
			publishDevice(chipIDs[i])
			fmt.Printf("\rpublished readings for device %v", i)
			wg.Done()
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	published := maxDevices * (readingsPerDevice + 1)
	fmt.Printf(
		"\rpublished %v messages for %v devices: used time=%v seconds, throughput=%v msg/second\n",
		published, maxDevices, usedTime.Seconds(), float64(published)/usedTime.Seconds(),
	)

	startTime = time.Now()
	wg = sync.WaitGroup{}
	for i := 0; i < maxDevices; i++ {
		i := i
		wg.Add(1)
		go func() {
			doQuery(chipIDs[i])
			wg.Done()
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"\n\rqueried for %v devices: used time=%v seconds, throughput=%v query/second, failures=%v\n",
		maxDevices, usedTime.Seconds(), float64(maxDevices*2)/usedTime.Seconds(), failures.Load(),
	)
}

func flipCoin() bool {
	rndMu.Lock()
	defer rndMu.Unlock()
	return rnd.Int31n(100000)%2 == 0
}

func rndFloat64(min, max float64, decimal int) float64 {
	rndMu.Lock()
	val := min + rnd.Float64()*(max-min)
	rndMu.Unlock()
	multiplier := float64(math.Pow10(decimal))
	return float64(math.Round(float64(val)*float64(multiplier))) / multiplier
}

func publish(topic string, payload []byte) {
	token := mqttClient.Publish(topic, 1, false, payload)
	if token.Wait() && token.Error() != nil {
		failures.Add(1)
		fmt.Printf("\npublish error: %v\n", token.Error())
	}
}

func publishDevice(chipID string) {
	mac := fmt.Sprintf("02:00:00:%s:%s:%s", chipID[0:2], chipID[2:4], chipID[4:6])
	now := time.Now().UTC()

	for i := 0; i < readingsPerDevice; i++ {
		payload, _ := json.Marshal(map[string]any{
			"chipId":      chipID,
			"mac":         mac,
			"temperature": rndFloat64(-10.0, 40.0, 2),
			"timestamp":   now.Add(time.Duration(i-readingsPerDevice) * time.Minute).Format(time.RFC3339),
		})
		publish(fmt.Sprintf("%s/%s/temperature", topicRoot, chipID), payload)
	}

	status := "online"
	if flipCoin() {
		status = fmt.Sprintf("heartbeat uptime=%d rssi=%d", int(rndFloat64(0, 86400, 0)), -int(rndFloat64(30, 90, 0)))
	}
	publish(fmt.Sprintf("%s/%s/status", topicRoot, chipID), []byte(status))
}

func doQuery(chipID string) {
	resp, err := http.Get(fmt.Sprintf("http://%s/devices/%s/status", httpHostPort, chipID))
	if err != nil {
		failures.Add(1)
		fmt.Printf("\nerror: %v\n", err)
	} else {
		resp.Body.Close()
		// the ingestor may not have caught up yet, 404 is fine
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
			failures.Add(1)
			fmt.Printf("\nresponse status code %v for chip %v\n", resp.StatusCode, chipID)
		}
	}

	chain := "iota"
	if flipCoin() {
		chain = "signum"
	}

	if flipCoin() {
		resp, err := http.Get(fmt.Sprintf("http://%s/stats/%s", httpHostPort, chain))
		if err != nil {
			failures.Add(1)
			fmt.Printf("\nerror: %v\n", err)
			return
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			failures.Add(1)
			fmt.Printf("\nresponse status code != 200: %v\n", resp)
		}
	} else {
		req, _ := structpb.NewStruct(map[string]any{"chain": chain})
		if _, err := grpcClient.GetUploadStats(context.Background(), req); err != nil {
			failures.Add(1)
			fmt.Printf("\nerror: %v\n", err)
		}
	}
}
