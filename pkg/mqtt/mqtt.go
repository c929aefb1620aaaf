// Package mqtt publishes processed-train summaries for live consumers. The
// rendering layer subscribes to the topics; nothing here owns the record.
package mqtt

import (
	"crypto/md5"
	"encoding/json"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/foamline/foamline/pkg/record"
)

type Client struct {
	client      paho.Client
	clientID    string
	topicPrefix string
	qos         byte
	retained    bool
	sampleRate  int
}

func NewClient(broker *url.URL, sampleRate int) *Client {
	c := &Client{}

	var urls []*url.URL
	urls = append(urls, broker)

	hostname, _ := os.Hostname()
	hostname = strings.Split(hostname, ".")[0]
	clientID := hostname
	if clientID == "" {
		now := time.Now().UnixNano()
		sum := md5.New().Sum([]byte(strconv.FormatInt(now, 10)))
		clientID = string(sum)
	}

	c.qos = 1
	c.topicPrefix = "foamline/" + hostname
	c.clientID = clientID
	if sampleRate < 1 {
		sampleRate = 1
	}
	c.sampleRate = sampleRate

	slog.Info("connecting to mqtt", "url", broker, "clientid", clientID)
	c.client = paho.NewClient(&paho.ClientOptions{
		Servers:        urls,
		ClientID:       clientID,
		ConnectRetry:   true,
		ConnectTimeout: 30 * time.Second,
	})

	return c
}

func (c *Client) Connect() error {
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		slog.Error("mqtt connection failed", "error", token.Error())
		return token.Error()
	}
	return nil
}

// trainSummary is the wire shape of one published train.
type trainSummary struct {
	TrainID    uint64    `json:"train_id"`
	RoiFom     *float64  `json:"roi_fom,omitempty"`
	RoiNorm    *float64  `json:"roi_norm,omitempty"`
	ProjFom    *float64  `json:"proj_fom,omitempty"`
	PpFom      *float64  `json:"pp_fom,omitempty"`
	PulseFom   []float64 `json:"pulse_fom,omitempty"`
	Azimuthal  *float64  `json:"azimuthal_fom,omitempty"`
	CorrPoints []int     `json:"corr_points,omitempty"`
}

type corrSummary struct {
	Source     string    `json:"source"`
	Resolution float64   `json:"resolution"`
	X          []float64 `json:"x"`
	Y          []float64 `json:"y"`
	YMin       []float64 `json:"y_min,omitempty"`
	YMax       []float64 `json:"y_max,omitempty"`
}

// GetPublisher returns a runner that publishes decimated train summaries and
// correlation snapshots until the input closes.
func (c *Client) GetPublisher(trains <-chan *record.Train) func() error {
	trainSample := NewSample(c.sampleRate)
	return func() error {
		for t := range trains {
			if !trainSample.Ready() {
				continue
			}
			s := trainSummary{
				TrainID:   t.ID,
				RoiFom:    t.Roi.Fom,
				RoiNorm:   t.Roi.Norm,
				ProjFom:   t.Roi.Proj.Fom,
				PpFom:     t.Pp.Fom,
				PulseFom:  t.PulseRoi.Fom,
				Azimuthal: t.AzimuthalFom,
			}
			for _, corr := range t.Corr {
				s.CorrPoints = append(s.CorrPoints, len(corr.X))
			}
			slog.Debug("mqtt publishing", "train", t.ID)
			c.publishJSON(c.topicPrefix+"/train", s)

			for i, corr := range t.Corr {
				c.publishJSON(c.topicPrefix+"/correlation/"+strconv.Itoa(i+1), corrSummary{
					Source:     corr.Source,
					Resolution: corr.Resolution,
					X:          corr.X,
					Y:          corr.Y,
					YMin:       corr.YMin,
					YMax:       corr.YMax,
				})
			}
		}
		return nil
	}
}

func (c *Client) publishJSON(topic string, v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		slog.Error("mqtt message encoding failed", "topic", topic, "error", err)
		return
	}
	t := c.client.Publish(topic, c.qos, c.retained, msg)
	go func() {
		_ = t.WaitTimeout(5 * time.Second)
		if t.Error() != nil {
			slog.Error("mqtt message publish failed", "error", t.Error())
		}
	}()
}
