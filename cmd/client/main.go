package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"gitlab.com/dirk.krummacker/contacts-directory/internal/model"
	"gitlab.com/dirk.krummacker/contacts-directory/internal/randomgen"
)

var baseURL string

// Usage example on the command line:
// > go run main.go -url=http://localhost:8080
func main() {
	flag.StringVar(&baseURL, "url", "http://localhost:8080", "the base URL of the service")
	flag.Parse()

	fmt.Println()
	fmt.Println("  Elements      POST       PUT       GET    DELETE  BIRTHDAY      AGES ")
	fmt.Println("-----------------------------------------------------------------------")
	sizes := []int{1000, 5000, 10000, 50000, 100000}
	for _, loops := range sizes {
		fmt.Printf("%10d", loops)
		ids := make([]string, 0, loops)
		{
			// POST requests
			var duration int64
			for i := 0; i < loops; i++ {
				id, d := sendPostRequest(randomgen.Contact())
				ids = append(ids, id)
				duration += d
			}
			fmt.Printf("%10d", duration/int64(loops*1000))
		}
		{
			// PUT requests
			f := func(id string) int64 {
				body, _ := json.Marshal(map[string]string{"first_name": randomgen.PickFirstName()})
				return sendIDRequest(id, http.MethodPut, bytes.NewReader(body))
			}
			callInLoop(ids, f)
		}
		{
			// GET requests
			f := func(id string) int64 {
				return sendIDRequest(id, http.MethodGet, nil)
			}
			callInLoop(ids, f)
		}
		{
			// DELETE requests, deleting only every other contact
			f := func(id string) int64 {
				return sendIDRequest(id, http.MethodDelete, nil)
			}
			callInLoop(ids[:len(ids)/2], f)
		}
		{
			// birthday and backfill requests over the remaining contacts
			_, d := sendRequest(http.MethodGet, baseURL+"/contacts/birthdays-next-month", nil)
			fmt.Printf("%10d", d/1000)
			_, d = sendRequest(http.MethodPost, baseURL+"/contacts/ages", nil)
			fmt.Printf("%10d", d/1000)
		}
		for _, id := range ids[len(ids)/2:] {
			sendIDRequest(id, http.MethodDelete, nil)
		}
		fmt.Println()
	}
}

// callInLoop calls f for every id in random order and prints the average duration in
// microseconds.
func callInLoop(ids []string, f func(id string) int64) {
	shuffled := make([]string, len(ids))
	copy(shuffled, ids)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	var duration int64
	for _, id := range shuffled {
		duration += f(id)
	}
	fmt.Printf("%10d", duration/int64(len(ids)*1000))
}

func sendPostRequest(contact model.Contact) (string, int64) {
	body, err := json.Marshal(contact)
	if err != nil {
		fmt.Println("could not marshal JSON", err)
		panic(err)
	}
	resBody, duration := sendRequest(http.MethodPost, baseURL+"/contacts", bytes.NewReader(body))
	var created model.Contact
	err = json.Unmarshal(resBody, &created)
	if err != nil {
		fmt.Println("could not unmarshal JSON", err)
		panic(err)
	}
	return created.Id, duration
}

func sendIDRequest(id string, method string, bodyReader io.Reader) int64 {
	_, duration := sendRequest(method, baseURL+"/contacts/"+id, bodyReader)
	return duration
}

func sendRequest(method string, requestURL string, bodyReader io.Reader) ([]byte, int64) {
	req, err := http.NewRequest(method, requestURL, bodyReader)
	if err != nil {
		fmt.Println("could not create request", err)
		panic(err)
	}
	req.Header.Set("Content-Type", "application/json")
	before := time.Now().UnixNano()
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Println("error making http request", err)
		panic(err)
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		fmt.Println("could not read response body", err)
		panic(err)
	}
	after := time.Now().UnixNano()
	return resBody, after - before
}
