// Package main — kolabcall, kolab'ın satır tabanlı native arama client'ı.
//
// Sunucuya REST ile login olur, /ws relay'ine bağlanır ve callsession
// Engine'ini bir konsol arayüzüyle sürer. Komutlar:
//
//	call <userID>   arama başlat
//	answer          gelen aramayı kabul et
//	decline         gelen aramayı reddet
//	end             aramayı bitir
//	mute            sesi aç/kapat
//	video           videoyu aç/kapat
//	screen          ekran paylaşımını aç/kapat
//	record <path>   kayda başla / durdur (path'siz)
//	raise           el kaldır/indir
//	chat <mesaj>    arama içi mesaj gönder
//	status          oturum durumu
//	quit            çık
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/akinalp/kolab/callsession"
	"github.com/akinalp/kolab/models"
)

func main() {
	log.SetFlags(log.Ltime)
	_ = godotenv.Load()

	serverURL := getEnv("KOLAB_SERVER_URL", "http://localhost:9090")
	email := os.Getenv("KOLAB_EMAIL")
	password := os.Getenv("KOLAB_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("KOLAB_EMAIL and KOLAB_PASSWORD are required")
	}

	// ─── Login + ICE config ───
	auth, err := login(serverURL, email, password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	log.Printf("logged in as %s (%s)", auth.User.Email, auth.User.ID)

	stunURLs, err := fetchICEServers(serverURL, auth.AccessToken)
	if err != nil {
		log.Printf("ice config fetch failed, using defaults: %v", err)
		stunURLs = []string{"stun:stun.l.google.com:19302"}
	}

	// ─── Medya + peer altyapısı ───
	capturer, peerFactory, err := callsession.NewMediaStack(stunURLs)
	if err != nil {
		log.Fatalf("media stack init failed: %v", err)
	}

	// ─── Relay + Engine ───
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	relay, err := callsession.DialRelay(ctx, serverURL, auth.AccessToken)
	cancel()
	if err != nil {
		log.Fatalf("relay dial failed: %v", err)
	}
	defer relay.Close()

	engine := callsession.NewEngine(callsession.Config{
		SelfID:          auth.User.ID,
		SelfName:        email,
		RingTimeout:     45 * time.Second,
		QualityInterval: 5 * time.Second,
	}, relay, capturer, peerFactory)
	defer engine.Close()

	go printEvents(engine)

	// ─── Konsol döngüsü ───
	recording := false
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case "":
		case "call":
			if arg == "" {
				fmt.Println("usage: call <userID>")
				break
			}
			report(engine.StartCall(arg))
		case "answer":
			report(engine.Answer())
		case "decline":
			report(engine.Decline())
		case "end":
			report(engine.End())
		case "mute":
			muted, err := engine.ToggleMute()
			reportState("muted", muted, err)
		case "video":
			disabled, err := engine.ToggleVideo()
			reportState("video disabled", disabled, err)
		case "screen":
			if engine.IsScreenSharing() {
				report(engine.StopScreenShare())
			} else {
				report(engine.StartScreenShare())
			}
		case "record":
			if recording {
				report(engine.StopRecording())
				recording = false
			} else {
				path := arg
				if path == "" {
					path = fmt.Sprintf("call-%s.webm", time.Now().Format("20060102-150405"))
				}
				if err := engine.StartRecording(path); err != nil {
					fmt.Println("error:", err)
				} else {
					recording = true
					fmt.Println("recording to", path)
				}
			}
		case "raise":
			raised, err := engine.ToggleHandRaise()
			reportState("hand raised", raised, err)
		case "chat":
			if arg == "" {
				fmt.Println("usage: chat <message>")
				break
			}
			report(engine.SendChat(arg))
		case "status":
			printStatus(engine)
		case "quit", "exit":
			return
		default:
			fmt.Println("unknown command:", cmd)
		}
		fmt.Print("> ")
	}
}

// printEvents, Engine bildirimlerini konsola basar.
func printEvents(engine *callsession.Engine) {
	for ev := range engine.Events() {
		switch ev.Kind {
		case callsession.EventIncomingCall:
			name := ev.PeerName
			if name == "" {
				name = ev.PeerID
			}
			fmt.Printf("\n*** incoming call from %s — answer | decline\n> ", name)
		case callsession.EventConnected:
			fmt.Printf("\n*** connected to %s\n> ", ev.PeerID)
		case callsession.EventDeclined:
			fmt.Printf("\n*** call declined (%s)\n> ", ev.Reason)
		case callsession.EventEnded:
			fmt.Printf("\n*** call ended (%s)\n> ", ev.Reason)
		case callsession.EventConnectionStatus:
			fmt.Printf("\n*** connection: %s\n> ", ev.Status)
		case callsession.EventHandRaise:
			verb := "lowered"
			if ev.IsRaised {
				verb = "raised"
			}
			fmt.Printf("\n*** %s %s their hand\n> ", ev.PeerID, verb)
		case callsession.EventChat:
			fmt.Printf("\n[%s] %s\n> ", ev.Sender, ev.Message)
		case callsession.EventQuality:
			fmt.Printf("\n*** call quality: %s\n> ", ev.Quality)
		case callsession.EventError:
			fmt.Printf("\n*** error: %v\n> ", ev.Err)
		}
	}
}

func printStatus(engine *callsession.Engine) {
	fmt.Println("state:     ", engine.State())
	fmt.Println("connection:", orNone(string(engine.ConnectionState())))
	if call := engine.ActiveCall(); call != nil {
		fmt.Println("call:      ", call.ID, "with", call.PeerID)
		fmt.Println("duration:  ", engine.Duration())
		fmt.Println("quality:   ", orNone(string(engine.CurrentQuality())))
		fmt.Printf("muted=%v video-off=%v screen=%v hand=%v\n",
			engine.IsMuted(), engine.IsVideoDisabled(), engine.IsScreenSharing(), engine.IsHandRaised())
	}
	if inc := engine.Incoming(); inc != nil {
		fmt.Println("ringing:   ", inc.CallerName, "("+inc.CallerID+")")
	}
}

func report(err error) {
	if err != nil {
		fmt.Println("error:", err)
	}
}

func reportState(label string, on bool, err error) {
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("%s: %v\n", label, on)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// ─── REST yardımcıları ───

// apiResponse, sunucunun standart cevap zarfı.
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func login(serverURL, email, password string) (*models.AuthResponse, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	resp, err := http.Post(serverURL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("%s", out.Error)
	}
	var auth models.AuthResponse
	if err := json.Unmarshal(out.Data, &auth); err != nil {
		return nil, err
	}
	return &auth, nil
}

func fetchICEServers(serverURL, token string) ([]string, error) {
	req, err := http.NewRequest(http.MethodGet, serverURL+"/api/calls/config", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if !out.Success {
		return nil, fmt.Errorf("%s", out.Error)
	}
	var cfg struct {
		ICEServers []string `json:"ice_servers"`
	}
	if err := json.Unmarshal(out.Data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.ICEServers) == 0 {
		return nil, fmt.Errorf("empty ice server list")
	}
	return cfg.ICEServers, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
