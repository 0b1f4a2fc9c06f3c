package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "auth":
		handleAuth(args)
	case "todo":
		handleTodo(args)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: todoapi auth <login|logout|who>")
		return
	}

	switch args[0] {
	case "login":
		login(args[1:])
	case "logout":
		logout()
	case "who":
		whoAmI()
	default:
		fmt.Printf("unknown auth command: %s\n", args[0])
	}
}

func handleTodo(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: todoapi todo <list|add|rename|rm>")
		return
	}

	switch args[0] {
	case "list":
		listTodos()
	case "add":
		addTodo(args[1:])
	case "rename":
		renameTodo(args[1:])
	case "rm":
		removeTodo(args[1:])
	default:
		fmt.Printf("unknown todo command: %s\n", args[0])
	}
}

// Auth commands

// login exchanges username/password for a signed token and caches it.
func login(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("username", "", "username")
	password := fs.String("password", "", "password")

	fs.Parse(args)

	if *username == "" || *password == "" {
		fmt.Println("Error: username and password are required")
		fs.PrintDefaults()
		return
	}

	req, _ := http.NewRequest("GET", getAPIURL()+"/api/v1/users/token", nil)
	req.SetBasicAuth(*username, *password)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		if token, ok := result["token"].(string); ok {
			saveToken(token)
			fmt.Printf("✓ Logged in as: %s\n", *username)
		}
	} else {
		fmt.Printf("✗ Login failed: %v\n", result)
	}
}

func logout() {
	os.Remove(tokenFile())
	fmt.Println("✓ Logged out")
}

func whoAmI() {
	token := loadToken()
	if token == "" {
		fmt.Println("Not logged in")
		return
	}
	fmt.Printf("✓ Logged in (token: %s...)\n", token[:20])
}

// Todo commands

func listTodos() {
	resp, err := http.Get(getAPIURL() + "/api/v1/todos")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var todos []map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&todos)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME")
	for _, t := range todos {
		fmt.Fprintf(w, "%v\t%v\n", t["id"], t["name"])
	}
	w.Flush()
}

func addTodo(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	name := fs.String("name", "", "todo name")

	fs.Parse(args)

	if *name == "" {
		fmt.Println("Error: name is required")
		fs.PrintDefaults()
		return
	}

	data, _ := json.Marshal(map[string]string{"name": *name})
	req, _ := http.NewRequest("POST", getAPIURL()+"/api/v1/todos", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 201 {
		fmt.Printf("✓ Created todo %v: %v\n", result["id"], result["name"])
	} else {
		fmt.Printf("✗ Create failed: %v\n", result)
	}
}

func renameTodo(args []string) {
	fs := flag.NewFlagSet("rename", flag.ExitOnError)
	id := fs.String("id", "", "todo id")
	name := fs.String("name", "", "new name")

	fs.Parse(args)

	if *id == "" || *name == "" {
		fmt.Println("Error: id and name are required")
		fs.PrintDefaults()
		return
	}

	data, _ := json.Marshal(map[string]string{"name": *name})
	req, _ := http.NewRequest("PUT", getAPIURL()+"/api/v1/todos/"+*id, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	addAuthHeader(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode == 200 {
		fmt.Printf("✓ Renamed todo %v: %v\n", result["id"], result["name"])
	} else {
		fmt.Printf("✗ Rename failed: %v\n", result)
	}
}

func removeTodo(args []string) {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	id := fs.String("id", "", "todo id")

	fs.Parse(args)

	if *id == "" {
		fmt.Println("Error: id is required")
		fs.PrintDefaults()
		return
	}

	req, _ := http.NewRequest("DELETE", getAPIURL()+"/api/v1/todos/"+*id, nil)
	addAuthHeader(req)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == 204 {
		fmt.Printf("✓ Deleted todo %s\n", *id)
	} else {
		fmt.Printf("✗ Delete failed (status %d)\n", resp.StatusCode)
	}
}

// Helper functions

func getAPIURL() string {
	if url := os.Getenv("TODOAPI_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func tokenFile() string {
	home, _ := os.UserHomeDir()
	return home + "/.todoapi/token"
}

func saveToken(token string) error {
	home, _ := os.UserHomeDir()
	os.MkdirAll(home+"/.todoapi", 0700)
	return os.WriteFile(tokenFile(), []byte(token), 0600)
}

func loadToken() string {
	data, _ := os.ReadFile(tokenFile())
	return string(data)
}

// addAuthHeader puts the cached token into the Basic username slot; the
// password slot is ignored by the server when a token is present.
func addAuthHeader(req *http.Request) {
	token := loadToken()
	if token != "" {
		req.SetBasicAuth(token, "unused")
	}
}

func printUsage() {
	fmt.Print(`todoapi CLI

Usage:
  todoapi <command> [options]

Commands:
  auth  User authentication (login, logout, who)
  todo  Todo operations (list, add, rename, rm)
  help  Show this help message

Environment Variables:
  TODOAPI_URL    API endpoint (default: http://localhost:8080)

Examples:
  todoapi auth login -username alice -password secret
  todoapi todo list
  todoapi todo add -name "water the plants"
  todoapi todo rename -id 1 -name "water the cactus"
  todoapi todo rm -id 1
`)
}
