package email

import (
	"fmt"
	"time"
)

func WelcomeBody(firstName, memberNumber string) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #002060;">Welcome to Miles&amp;Smiles!</h2>
  <p>Dear %s,</p>
  <p>Thank you for joining Miles&amp;Smiles! Your membership number is: <strong>%s</strong></p>
  <p>Start earning miles on every flight and enjoy exclusive benefits.</p>
  <p>Best regards,<br>Yasar Airlines Team</p>
</div>`, firstName, memberNumber)
}

func BookingConfirmationBody(firstName, bookingNumber, flightCode, fromCity, toCity string, flightDate time.Time, passengers int, totalPriceCents int64) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #002060;">Booking Confirmation</h2>
  <p>Dear %s,</p>
  <p>Your booking has been confirmed!</p>
  <p><strong>Booking Number:</strong> %s</p>
  <p><strong>Flight:</strong> %s</p>
  <p><strong>Route:</strong> %s &rarr; %s</p>
  <p><strong>Date:</strong> %s</p>
  <p><strong>Passengers:</strong> %d</p>
  <p><strong>Total Price:</strong> %.2f TL</p>
  <p>Thank you for choosing Yasar Airlines!</p>
</div>`, firstName, bookingNumber, flightCode, fromCity, toCity, flightDate.Format("02.01.2006"), passengers, float64(totalPriceCents)/100)
}

func MilesAddedBody(firstName string, milesAdded, totalMiles int64) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #002060;">Miles Added to Your Account</h2>
  <p>Dear %s,</p>
  <p>Great news! <strong>%d miles</strong> have been added to your Miles&amp;Smiles account.</p>
  <p>Your total miles balance is now: <strong>%d miles</strong></p>
  <p>Thank you for flying with us!</p>
  <p>Best regards,<br>Yasar Airlines Team</p>
</div>`, firstName, milesAdded, totalMiles)
}
